package sensor

import (
	"errors"
	"fmt"
	"math"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/dist"
)

// Band is an open interval (Min, Max) of positions.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether Min < p < Max.
func (b Band) Contains(p float64) bool {
	return b.Min < p && p < b.Max
}

// Config holds the per-sensor tuning parameters.
type Config struct {
	ID    string
	Topic string // truth position topic to subscribe to

	BeamCapacity int // number of interchangeable beam units (must be > 0)

	// Scan fence: search locations from FenceMin to FenceMax inclusive, FenceStep apart.
	FenceMin  float64
	FenceMax  float64
	FenceStep float64

	FOV                   Band    // detectable position band
	IlluminationThreshold float64 // max |beam location - truth position| counted as illumination
	DetectionThreshold    float64 // detection succeeds when the draw exceeds this

	SearchPriority    int      // beam priority of search scans (lower is more urgent)
	TrackPriority     int      // beam priority of track maintenance
	SearchServiceTime sim.Time // beam hold per search scan
	TrackDwell        sim.Time // beam hold per track update
	TrackRevisit      sim.Time // pause between track updates
}

// DefaultConfig returns the reference sensor parameters.
func DefaultConfig(id string) Config {
	return Config{
		ID:                    id,
		Topic:                 "THREAT_POSITION",
		BeamCapacity:          4,
		FenceMin:              200,
		FenceMax:              230,
		FenceStep:             1,
		FOV:                   Band{Min: 200, Max: 500},
		IlluminationThreshold: 1.0,
		DetectionThreshold:    0.5,
		SearchPriority:        5,
		TrackPriority:         1,
		SearchServiceTime:     0.1,
		TrackDwell:            1,
		TrackRevisit:          0.1,
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("sensor ID must not be empty"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic must not be empty"))
	}
	if c.BeamCapacity < 1 {
		errs = append(errs, fmt.Errorf("beam capacity must be >= 1, got %d", c.BeamCapacity))
	}
	if c.FenceStep <= 0 {
		errs = append(errs, fmt.Errorf("fence step must be > 0, got %v", c.FenceStep))
	}
	if c.FenceMax < c.FenceMin {
		errs = append(errs, fmt.Errorf("fence [%v, %v] is empty", c.FenceMin, c.FenceMax))
	}
	if c.FOV.Max <= c.FOV.Min {
		errs = append(errs, fmt.Errorf("field of view (%v, %v) is empty", c.FOV.Min, c.FOV.Max))
	}
	if c.IlluminationThreshold <= 0 {
		errs = append(errs, fmt.Errorf("illumination threshold must be > 0, got %v", c.IlluminationThreshold))
	}
	if c.SearchServiceTime <= 0 || c.TrackDwell <= 0 || c.TrackRevisit < 0 {
		errs = append(errs, fmt.Errorf("service times must be positive (search %v, dwell %v, revisit %v)",
			c.SearchServiceTime, c.TrackDwell, c.TrackRevisit))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sensor %q: %w", c.ID, err)
	}
	return nil
}

// FenceLocations discretizes [min, max] into locations step apart,
// including min and, when it falls on the grid, max.
func FenceLocations(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	n := int(math.Floor((max-min)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = min + step*float64(i)
	}
	return out
}

// Samplers are the injected probabilistic outcome strategies of a sensor.
type Samplers struct {
	Detection dist.Sampler // compared against Config.DetectionThreshold
	Quality   dist.Sampler // track-quality increment per update
}

func (s Samplers) validate() error {
	if s.Detection == nil || s.Quality == nil {
		return errors.New("detection and quality samplers are required")
	}
	return nil
}
