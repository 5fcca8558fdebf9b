package sensor

import (
	"fmt"

	"github.com/sensorfield/sensorsim/sim/broker"
)

// Update is the truth snapshot that triggers one detector evaluation.
// Prev is nil on the first report of an emitter.
type Update struct {
	Prev    *broker.Message
	Current broker.Message
}

type truthEntry struct {
	prev       *broker.Message
	cur        broker.Message
	terminated bool
}

// TruthState caches the latest two position reports per emitter, as seen by
// one sensor. The previous report bounds the interval used for occupancy
// correlation.
type TruthState struct {
	entries map[string]*truthEntry
}

// NewTruthState creates an empty cache.
func NewTruthState() *TruthState {
	return &TruthState{entries: make(map[string]*truthEntry)}
}

// Update shifts the current report to previous and stores msg.
func (ts *TruthState) Update(msg broker.Message) Update {
	e, ok := ts.entries[msg.OriginID]
	if !ok {
		ts.entries[msg.OriginID] = &truthEntry{cur: msg}
		return Update{Current: msg}
	}
	prev := e.cur
	e.prev = &prev
	e.cur = msg
	return Update{Prev: &prev, Current: msg}
}

// Terminate marks the emitter as having finished its report sequence.
// It reports false for an emitter that never published a position.
func (ts *TruthState) Terminate(id string) bool {
	e, ok := ts.entries[id]
	if !ok {
		return false
	}
	e.terminated = true
	return true
}

// Known reports whether id has published at least one position.
func (ts *TruthState) Known(id string) bool {
	_, ok := ts.entries[id]
	return ok
}

// Latest returns the most recent report for id. Asking about an unknown
// emitter is a wiring bug and panics.
func (ts *TruthState) Latest(id string) broker.Message {
	return ts.mustGet(id).cur
}

// Previous returns the report before the latest one, or nil.
func (ts *TruthState) Previous(id string) *broker.Message {
	return ts.mustGet(id).prev
}

// Terminated reports whether id announced the end of its sequence.
func (ts *TruthState) Terminated(id string) bool {
	return ts.mustGet(id).terminated
}

// Len returns the number of emitters seen.
func (ts *TruthState) Len() int {
	return len(ts.entries)
}

func (ts *TruthState) mustGet(id string) *truthEntry {
	e, ok := ts.entries[id]
	if !ok {
		panic(fmt.Sprintf("truth state: no entry for emitter %q", id))
	}
	return e
}
