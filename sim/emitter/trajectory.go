package emitter

import (
	"fmt"

	"github.com/sensorfield/sensorsim/sim"
)

// Waypoint is one pre-computed (time, position) report of an emitter.
type Waypoint struct {
	Time     sim.Time
	Position float64
}

// Trajectory supplies positions for a series of report times.
// Implementations must return exactly len(times) positions.
type Trajectory interface {
	Positions(times []sim.Time) []float64
}

// Linear spaces positions evenly from Start to End across the report times,
// inclusive at both ends. A single report sits at Start.
type Linear struct {
	Start float64
	End   float64
}

func (l Linear) Positions(times []sim.Time) []float64 {
	n := len(times)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = l.Start
		return out
	}
	step := (l.End - l.Start) / float64(n-1)
	for i := range out {
		out[i] = l.Start + step*float64(i)
	}
	out[n-1] = l.End
	return out
}

// Times returns the integer report times [start, end).
func Times(start, end int) []sim.Time {
	if end <= start {
		return nil
	}
	out := make([]sim.Time, 0, end-start)
	for t := start; t < end; t++ {
		out = append(out, sim.Time(t))
	}
	return out
}

// Path zips report times with the trajectory's positions.
func Path(times []sim.Time, tr Trajectory) ([]Waypoint, error) {
	positions := tr.Positions(times)
	if len(positions) != len(times) {
		return nil, fmt.Errorf("trajectory returned %d positions for %d times", len(positions), len(times))
	}
	path := make([]Waypoint, len(times))
	for i := range times {
		path[i] = Waypoint{Time: times[i], Position: positions[i]}
	}
	return path, nil
}
