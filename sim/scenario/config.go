package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
	"github.com/sensorfield/sensorsim/sim/dist"
	"github.com/sensorfield/sensorsim/sim/sensor"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// ErrEmptyRange is returned when a Range has Max < Min.
var ErrEmptyRange = errors.New("empty range")

// Range is an integer draw from [Min, Max). Min == Max always yields Min.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Fixed returns a Range that always yields v.
func Fixed(v int) Range { return Range{Min: v, Max: v} }

// Draw picks a value from the range using rng.
func (r Range) Draw(rng *rand.Rand) (int, error) {
	switch {
	case r.Max < r.Min:
		return 0, fmt.Errorf("[%d, %d): %w", r.Min, r.Max, ErrEmptyRange)
	case r.Max == r.Min:
		return r.Min, nil
	default:
		return r.Min + rng.Intn(r.Max-r.Min), nil
	}
}

// upper returns the largest value Draw can produce.
func (r Range) upper() int {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Max - 1
}

// SubscriptionConfig bounds each sensor's position queue.
type SubscriptionConfig struct {
	Capacity int    `yaml:"capacity"` // 0 = unbounded
	Overflow string `yaml:"overflow"` // "block" or "reject"
}

// SensorSpec describes one sensor. The scan fence bounds are drawn at build time.
type SensorSpec struct {
	ID                    string      `yaml:"id"`
	Beams                 int         `yaml:"beams"`
	FenceMin              Range       `yaml:"fence_min"`
	FenceMax              Range       `yaml:"fence_max"`
	FenceStep             float64     `yaml:"fence_step"`
	FOV                   sensor.Band `yaml:"fov"`
	IlluminationThreshold float64     `yaml:"illumination_threshold"`
	DetectionThreshold    float64     `yaml:"detection_threshold"`
	SearchPriority        int         `yaml:"search_priority"`
	TrackPriority         int         `yaml:"track_priority"`
	SearchServiceTime     float64     `yaml:"search_service_time"`
	TrackDwell            float64     `yaml:"track_dwell"`
	TrackRevisit          float64     `yaml:"track_revisit"`
	Detection             dist.Spec   `yaml:"detection"`
	Quality               dist.Spec   `yaml:"quality"`
}

// UnmarshalYAML decodes a sensor entry on top of DefaultSensorSpec, so a
// scenario file only lists the fields it changes. Unknown keys are rejected.
func (s *SensorSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain SensorSpec
	p := plain(DefaultSensorSpec(""))
	if err := decodeStrict(value, &p); err != nil {
		return err
	}
	*s = SensorSpec(p)
	return nil
}

// decodeStrict re-decodes node with KnownFields(true); yaml.Node.Decode
// does not inherit the outer decoder's strictness.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

// DefaultSensorSpec returns the reference sensor with the given ID.
func DefaultSensorSpec(id string) SensorSpec {
	ref := sensor.DefaultConfig(id)
	return SensorSpec{
		ID:                    id,
		Beams:                 ref.BeamCapacity,
		FenceMin:              Range{Min: 190, Max: 210},
		FenceMax:              Range{Min: 215, Max: 235},
		FenceStep:             ref.FenceStep,
		FOV:                   ref.FOV,
		IlluminationThreshold: ref.IlluminationThreshold,
		DetectionThreshold:    ref.DetectionThreshold,
		SearchPriority:        ref.SearchPriority,
		TrackPriority:         ref.TrackPriority,
		SearchServiceTime:     float64(ref.SearchServiceTime),
		TrackDwell:            float64(ref.TrackDwell),
		TrackRevisit:          float64(ref.TrackRevisit),
		Detection:             dist.BetaSpec(2, 2),
		Quality:               dist.BetaSpec(2, 3),
	}
}

// sensorConfig converts the spec into a sensor.Config with a drawn fence.
func (s SensorSpec) sensorConfig(topic string, fenceMin, fenceMax int) sensor.Config {
	return sensor.Config{
		ID:                    s.ID,
		Topic:                 topic,
		BeamCapacity:          s.Beams,
		FenceMin:              float64(fenceMin),
		FenceMax:              float64(fenceMax),
		FenceStep:             s.FenceStep,
		FOV:                   s.FOV,
		IlluminationThreshold: s.IlluminationThreshold,
		DetectionThreshold:    s.DetectionThreshold,
		SearchPriority:        s.SearchPriority,
		TrackPriority:         s.TrackPriority,
		SearchServiceTime:     sim.Time(s.SearchServiceTime),
		TrackDwell:            sim.Time(s.TrackDwell),
		TrackRevisit:          sim.Time(s.TrackRevisit),
	}
}

// FixedEmitter is an emitter with explicit report times [Start, End).
// From and To default to the population trajectory when unset.
type FixedEmitter struct {
	ID    string   `yaml:"id"`
	Start int      `yaml:"start"`
	End   int      `yaml:"end"`
	From  *float64 `yaml:"from,omitempty"`
	To    *float64 `yaml:"to,omitempty"`
}

// trajectory returns the endpoints of f's path, falling back to e's.
func (f FixedEmitter) trajectory(e EmitterSpec) (from, to float64) {
	from, to = e.From, e.To
	if f.From != nil {
		from = *f.From
	}
	if f.To != nil {
		to = *f.To
	}
	return from, to
}

// randomEmitterID names the i-th randomly timed emitter.
func randomEmitterID(i int) string {
	return fmt.Sprintf("Missile %d", i)
}

// isRandomEmitterID reports whether id names one of the first count
// randomly timed emitters.
func isRandomEmitterID(id string, count int) bool {
	rest, ok := strings.CutPrefix(id, "Missile ")
	if !ok {
		return false
	}
	i, err := strconv.Atoi(rest)
	return err == nil && i >= 0 && i < count && randomEmitterID(i) == id
}

// EmitterSpec describes the randomly timed emitter population.
// Each emitter reports at integer times [start, end) and moves linearly
// from From to To over its reports.
type EmitterSpec struct {
	Count int            `yaml:"count"`
	Start Range          `yaml:"start"`
	End   Range          `yaml:"end"`
	From  float64        `yaml:"from"`
	To    float64        `yaml:"to"`
	Fixed []FixedEmitter `yaml:"fixed,omitempty"`
}

// Config is the YAML scenario file.
type Config struct {
	Seed         int64              `yaml:"seed"`
	Horizon      float64            `yaml:"horizon"`
	Topic        string             `yaml:"topic"`
	Trace        string             `yaml:"trace"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Sensors      []SensorSpec       `yaml:"sensors"`
	Emitters     EmitterSpec        `yaml:"emitters"`
}

// DefaultHorizon is the reference run length.
const DefaultHorizon = 100

// DefaultConfig returns the reference scenario: two sensors and ten
// randomly timed emitters over a horizon of 100.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		Horizon:      DefaultHorizon,
		Topic:        "THREAT_POSITION",
		Trace:        string(trace.TraceLevelNone),
		Subscription: SubscriptionConfig{Overflow: broker.OverflowBlock.String()},
		Sensors:      []SensorSpec{DefaultSensorSpec("Sensor A"), DefaultSensorSpec("Sensor B")},
		Emitters: EmitterSpec{
			Count: 10,
			Start: Range{Min: 0, Max: 20},
			End:   Range{Min: 50, Max: DefaultHorizon},
			From:  100,
			To:    1000,
		},
	}
}

// LoadConfig reads a scenario file on top of DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML scenario data on top of DefaultConfig.
// A sensors list in data replaces the default sensors entirely.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Sensors = nil
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing scenario: %w", err)
	}
	if cfg.Sensors == nil {
		cfg.Sensors = DefaultConfig().Sensors
	}
	return cfg, nil
}

// Validate reports every configuration error found.
func (c Config) Validate() error {
	var errs []error
	if !(c.Horizon > 0) {
		errs = append(errs, fmt.Errorf("horizon must be > 0, got %v", c.Horizon))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic must not be empty"))
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		errs = append(errs, fmt.Errorf("unknown trace level %q (want none or decisions)", c.Trace))
	}
	if c.Subscription.Capacity < 0 {
		errs = append(errs, fmt.Errorf("subscription capacity must be >= 0, got %d", c.Subscription.Capacity))
	}
	if _, err := broker.ParseOverflowPolicy(c.Subscription.Overflow); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool)
	for i, s := range c.Sensors {
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("sensors[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if err := s.validate(c.Topic); err != nil {
			errs = append(errs, fmt.Errorf("sensors[%d]: %w", i, err))
		}
	}
	if err := c.Emitters.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s SensorSpec) validate(topic string) error {
	var errs []error
	if s.FenceMin.Max < s.FenceMin.Min {
		errs = append(errs, fmt.Errorf("fence_min [%d, %d): %w", s.FenceMin.Min, s.FenceMin.Max, ErrEmptyRange))
	}
	if s.FenceMax.Max < s.FenceMax.Min {
		errs = append(errs, fmt.Errorf("fence_max [%d, %d): %w", s.FenceMax.Min, s.FenceMax.Max, ErrEmptyRange))
	}
	if s.FenceMin.upper() > s.FenceMax.Min {
		errs = append(errs, fmt.Errorf("fence_min can draw %d, above the lowest fence_max %d", s.FenceMin.upper(), s.FenceMax.Min))
	}
	// Fence bounds are checked above; validate the rest on the widest fence.
	if err := s.sensorConfig(topic, s.FenceMin.Min, s.FenceMax.upper()).Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Detection.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("detection: %w", err))
	}
	if err := s.Quality.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("quality: %w", err))
	}
	return errors.Join(errs...)
}

func (e EmitterSpec) validate() error {
	var errs []error
	if e.Count < 0 {
		errs = append(errs, fmt.Errorf("emitters.count must be >= 0, got %d", e.Count))
	}
	if e.Count > 0 {
		if e.Start.Max < e.Start.Min {
			errs = append(errs, fmt.Errorf("emitters.start [%d, %d): %w", e.Start.Min, e.Start.Max, ErrEmptyRange))
		}
		if e.End.Max < e.End.Min {
			errs = append(errs, fmt.Errorf("emitters.end [%d, %d): %w", e.End.Min, e.End.Max, ErrEmptyRange))
		}
		if e.Start.Min < 0 {
			errs = append(errs, fmt.Errorf("emitters.start must be >= 0, got %d", e.Start.Min))
		}
	}
	seen := make(map[string]bool)
	for i, f := range e.Fixed {
		if f.ID == "" {
			errs = append(errs, fmt.Errorf("emitters.fixed[%d]: id must not be empty", i))
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("emitters.fixed[%d]: duplicate id %q", i, f.ID))
		}
		if e.Count > 0 && isRandomEmitterID(f.ID, e.Count) {
			errs = append(errs, fmt.Errorf("emitters.fixed[%d]: id %q collides with a randomly timed emitter", i, f.ID))
		}
		seen[f.ID] = true
		if f.Start < 0 || f.End <= f.Start {
			errs = append(errs, fmt.Errorf("emitters.fixed[%d]: report times [%d, %d) are empty or negative", i, f.Start, f.End))
		}
	}
	return errors.Join(errs...)
}
