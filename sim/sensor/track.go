package sensor

import (
	"fmt"
	"sort"

	"github.com/sensorfield/sensorsim/sim"
)

// QualityPoint is one (time, running quality) sample of a track.
type QualityPoint struct {
	Time    sim.Time
	Quality float64
}

// Track accumulates detection quality for one confirmed emitter.
// It is mutated only by its owning tracker process.
type Track struct {
	SensorID  string
	EmitterID string
	Quality   float64 // running total, starts at 0
	Points    []QualityPoint
	Started   sim.Time
	Ended     sim.Time

	finalized bool
}

func newTrack(sensorID, emitterID string, now sim.Time) *Track {
	return &Track{SensorID: sensorID, EmitterID: emitterID, Started: now}
}

// Update adds delta to the running quality and appends a point at now.
func (t *Track) Update(now sim.Time, delta float64) {
	if t.finalized {
		panic(fmt.Sprintf("track %s/%s updated after finalization", t.SensorID, t.EmitterID))
	}
	if n := len(t.Points); n > 0 && now < t.Points[n-1].Time {
		panic(fmt.Sprintf("track %s/%s: update at %v before %v", t.SensorID, t.EmitterID, now, t.Points[n-1].Time))
	}
	t.Quality += delta
	t.Points = append(t.Points, QualityPoint{Time: now, Quality: t.Quality})
}

// Finalized reports whether the track has ended.
func (t *Track) Finalized() bool { return t.finalized }

// TrackStore holds finalized tracks per emitter, in finalization order.
type TrackStore struct {
	byEmitter map[string][]*Track
	count     int
}

// NewTrackStore creates an empty store.
func NewTrackStore() *TrackStore {
	return &TrackStore{byEmitter: make(map[string][]*Track)}
}

// finalize closes t at now and stores it. Finalizing a track twice panics.
func (s *TrackStore) finalize(t *Track, now sim.Time) {
	if t.finalized {
		panic(fmt.Sprintf("track %s/%s finalized twice", t.SensorID, t.EmitterID))
	}
	t.finalized = true
	t.Ended = now
	s.byEmitter[t.EmitterID] = append(s.byEmitter[t.EmitterID], t)
	s.count++
}

// Get returns every finalized track for an emitter.
func (s *TrackStore) Get(emitterID string) []*Track {
	return s.byEmitter[emitterID]
}

// Last returns the most recently finalized track for an emitter, or nil.
func (s *TrackStore) Last(emitterID string) *Track {
	ts := s.byEmitter[emitterID]
	if len(ts) == 0 {
		return nil
	}
	return ts[len(ts)-1]
}

// EmitterIDs returns the emitters with at least one finalized track, sorted.
func (s *TrackStore) EmitterIDs() []string {
	ids := make([]string, 0, len(s.byEmitter))
	for id := range s.byEmitter {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of emitters with finalized tracks.
func (s *TrackStore) Len() int { return len(s.byEmitter) }

// Count returns the total number of finalized tracks.
func (s *TrackStore) Count() int { return s.count }
