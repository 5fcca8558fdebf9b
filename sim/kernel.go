// sim/kernel.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Kernel holds the simulation clock and the pending event queue.
// It runs cooperatively on a single goroutine: exactly one continuation
// executes at a time, and all shared state is mutated from inside
// continuations, so no locking is needed.
type Kernel struct {
	now   Time
	queue EventQueue
	// nextSeq is the per-kernel event counter used for deterministic tie-breaking
	nextSeq uint64
	// err is the first fatal error reported by a process via Fail
	err error
	// Executed counts events resumed so far
	Executed int64
}

// NewKernel creates a kernel with its clock at zero and no pending events.
func NewKernel() *Kernel {
	k := &Kernel{queue: make(EventQueue, 0)}
	heap.Init(&k.queue)
	return k
}

// Now returns the current simulation time.
func (k *Kernel) Now() Time {
	return k.now
}

// Pending returns the number of events waiting in the queue.
func (k *Kernel) Pending() int {
	return k.queue.Len()
}

// Schedule enqueues fn to resume at now+delay.
// A negative or NaN delay is a programming error and panics.
func (k *Kernel) Schedule(delay Time, name string, fn func()) *Event {
	if delay < 0 || math.IsNaN(float64(delay)) {
		panic(fmt.Sprintf("Schedule %q: invalid delay %v at t=%v", name, delay, k.now))
	}
	if fn == nil {
		panic(fmt.Sprintf("Schedule %q: nil continuation", name))
	}
	k.nextSeq++
	ev := &Event{time: k.now + delay, seq: k.nextSeq, name: name, fn: fn}
	heap.Push(&k.queue, ev)
	return ev
}

// Timeout suspends the caller for delay and then resumes fn.
func (k *Kernel) Timeout(delay Time, fn func()) *Event {
	return k.Schedule(delay, "timeout", fn)
}

// Process starts a new logical process at the current instant.
func (k *Kernel) Process(name string, start func()) *Event {
	return k.Schedule(0, name, start)
}

// Fail records a fatal process error. Run stops after the current event
// and returns the first recorded error.
func (k *Kernel) Fail(err error) {
	if err == nil || k.err != nil {
		return
	}
	logrus.Errorf("[t=%09.3f] process failure: %v", float64(k.now), err)
	k.err = err
}

// Err returns the first fatal error reported via Fail, if any.
func (k *Kernel) Err() error {
	return k.err
}

// Run executes events in (time, seq) order until the queue drains, a
// process fails, or the next event is at or beyond until. Unless a process
// failed, the clock ends at until; pass math.Inf(1) to run to exhaustion.
func (k *Kernel) Run(until Time) error {
	if until < k.now {
		return fmt.Errorf("run until %v: horizon is before current time %v", until, k.now)
	}
	for k.queue.Len() > 0 && k.err == nil {
		if k.queue[0].time >= until {
			break
		}
		ev := heap.Pop(&k.queue).(*Event)
		if ev.time < k.now {
			panic(fmt.Sprintf("Clock went backwards: %v < %v", ev.time, k.now))
		}
		k.now = ev.time
		logrus.Debugf("[t=%09.3f] Executing %s", float64(k.now), ev)
		ev.Execute()
		k.Executed++
	}
	if k.err != nil {
		return fmt.Errorf("simulation aborted at t=%v: %w", k.now, k.err)
	}
	if !math.IsInf(float64(until), 1) {
		k.now = until
	}
	logrus.Debugf("[t=%09.3f] Simulation ended with %d pending events", float64(k.now), k.queue.Len())
	return nil
}
