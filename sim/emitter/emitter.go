// Package emitter implements emitter (missile) processes that publish a
// pre-computed sequence of truth positions at their emission times.
package emitter

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
)

// ErrEmptyPath is returned when an emitter has no waypoints.
var ErrEmptyPath = errors.New("emitter path is empty")

// Emitter publishes its waypoints on a topic, one per report time.
// The full path is known up front; sensors only learn it through
// published messages at the time each one is emitted.
type Emitter struct {
	ID    string
	k     *sim.Kernel
	b     *broker.Broker
	topic string
	path  []Waypoint

	next      int
	published int
	done      bool
}

// New validates path and creates an emitter. Report times must be
// non-negative and strictly increasing.
func New(k *sim.Kernel, b *broker.Broker, topic, id string, path []Waypoint) (*Emitter, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("emitter %q: %w", id, ErrEmptyPath)
	}
	if path[0].Time < 0 {
		return nil, fmt.Errorf("emitter %q: first report at negative time %v", id, path[0].Time)
	}
	for i := 1; i < len(path); i++ {
		if path[i].Time <= path[i-1].Time {
			return nil, fmt.Errorf("emitter %q: report %d at %v is not after %v", id, i, path[i].Time, path[i-1].Time)
		}
	}
	return &Emitter{
		ID:    id,
		k:     k,
		b:     b,
		topic: topic,
		path:  append([]Waypoint(nil), path...),
	}, nil
}

// Path returns a copy of the emitter's waypoints.
func (e *Emitter) Path() []Waypoint {
	return append([]Waypoint(nil), e.path...)
}

// Published returns the number of position reports published so far.
func (e *Emitter) Published() int { return e.published }

// Done reports whether the emitter has exhausted its path.
func (e *Emitter) Done() bool { return e.done }

// Start schedules the emitter process. It sleeps until the first report time.
// Starting after the first report time panics.
func (e *Emitter) Start() {
	e.k.Schedule(e.path[0].Time-e.k.Now(), "emitter/"+e.ID, e.launch)
}

func (e *Emitter) launch() {
	logrus.Infof("%s is launching at %.3f", e.ID, float64(e.k.Now()))
	e.emit()
}

// emit publishes the current waypoint and then waits out the gap to the next.
func (e *Emitter) emit() {
	wp := e.path[e.next]
	logrus.Debugf("%s position event for t=%.3f at position=%.3f", e.ID, float64(e.k.Now()), wp.Position)
	msg := broker.PositionMessage(e.ID, e.k.Now(), wp.Position)
	if err := e.b.Publish(e.topic, msg, e.afterPublish); err != nil {
		e.k.Fail(fmt.Errorf("emitter %s: %w", e.ID, err))
		return
	}
	e.published++
}

func (e *Emitter) afterPublish() {
	gap := sim.Time(1)
	if e.next+1 < len(e.path) {
		gap = e.path[e.next+1].Time - e.path[e.next].Time
	}
	e.next++
	if e.next < len(e.path) {
		e.k.Timeout(gap, e.emit)
		return
	}
	e.k.Timeout(gap, e.terminate)
}

// terminate announces the end of the report sequence so that sensors can
// close tracks on an emitter whose last position was inside their view.
func (e *Emitter) terminate() {
	e.done = true
	msg := broker.StatusMessage(e.ID, e.k.Now(), broker.StatusTerminated)
	if err := e.b.Publish(e.topic, msg, nil); err != nil {
		e.k.Fail(fmt.Errorf("emitter %s: %w", e.ID, err))
		return
	}
	logrus.Infof("%s terminated at %.3f after %d reports", e.ID, float64(e.k.Now()), e.published)
}
