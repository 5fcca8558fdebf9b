package sim

import "fmt"

// Time is a point on the simulation clock. It only moves forward, and only
// when the Kernel pops the next Event.
type Time float64

// Event is a scheduled resumption of one suspended process.
// Events are immutable once created and are executed exactly once.
type Event struct {
	time Time   // simulation time at which the continuation resumes
	seq  uint64 // insertion order, breaks ties between equal times
	name string // label used in debug logs
	fn   func() // continuation; results are delivered through its closure
}

// Timestamp returns the scheduled time of the event.
func (e *Event) Timestamp() Time {
	return e.time
}

// Seq returns the kernel-assigned sequence number of the event.
func (e *Event) Seq() uint64 {
	return e.seq
}

// Name returns the label the event was scheduled with.
func (e *Event) Name() string {
	return e.name
}

// Execute resumes the continuation.
func (e *Event) Execute() {
	e.fn()
}

func (e *Event) String() string {
	return fmt.Sprintf("%s@%.3f#%d", e.name, float64(e.time), e.seq)
}

// EventQueue implements heap.Interface and orders events by (time, seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []*Event

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].time != eq[j].time {
		return eq[i].time < eq[j].time
	}
	return eq[i].seq < eq[j].seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}
