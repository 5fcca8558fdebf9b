package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_UpdateAccumulatesQuality(t *testing.T) {
	tr := newTrack("S", "m0", 2)
	tr.Update(3, 0.25)
	tr.Update(4.1, 0.5)

	require.Len(t, tr.Points, 2)
	assert.Equal(t, 0.75, tr.Quality)
	assert.Equal(t, QualityPoint{Time: 4.1, Quality: 0.75}, tr.Points[1])
	assert.Panics(t, func() { tr.Update(4, 0.1) }, "update before the last point")
}

func TestTrackStore_FinalizesExactlyOnce(t *testing.T) {
	// GIVEN a live track with one update
	store := NewTrackStore()
	tr := newTrack("S", "m0", 2)
	tr.Update(3, 0.25)

	// WHEN it is finalized
	store.finalize(tr, 5)

	// THEN it is stored once with its end time
	assert.True(t, tr.Finalized())
	assert.Equal(t, 5.0, float64(tr.Ended))
	assert.Same(t, tr, store.Last("m0"))
	assert.Equal(t, 1, store.Count())

	// AND it can be neither finalized again nor updated
	assert.Panics(t, func() { store.finalize(tr, 6) })
	assert.Panics(t, func() { tr.Update(6, 0.25) })
	assert.Equal(t, 1, store.Count())
	assert.Len(t, store.Get("m0"), 1)
}

func TestTrackStore_KeepsSuccessiveTracksPerEmitter(t *testing.T) {
	store := NewTrackStore()
	first, second := newTrack("S", "m0", 1), newTrack("S", "m0", 10)
	store.finalize(first, 4)
	store.finalize(second, 12)
	store.finalize(newTrack("S", "a1", 3), 7)

	assert.Equal(t, []*Track{first, second}, store.Get("m0"))
	assert.Same(t, second, store.Last("m0"))
	assert.Nil(t, store.Last("zz"))
	assert.Equal(t, []string{"a1", "m0"}, store.EmitterIDs())
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 3, store.Count())
}
