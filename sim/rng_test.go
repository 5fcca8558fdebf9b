package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomStreams_SameSeedSameDraws(t *testing.T) {
	// GIVEN two stream sets built from the same seed
	a, b := NewRandomStreams(42), NewRandomStreams(42)

	// WHEN drawing from the same sensor's detection stream
	// THEN the sequences are identical
	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Stream(DetectionStream("A")).Float64(), b.Stream(DetectionStream("A")).Float64(), "draw %d", i)
	}
}

func TestRandomStreams_StreamsAreIsolated(t *testing.T) {
	// GIVEN two stream sets from the same seed
	a, b := NewRandomStreams(42), NewRandomStreams(42)

	// WHEN a draws heavily from the scenario and another sensor's streams
	for i := 0; i < 10; i++ {
		a.Stream(ScenarioStream).Float64()
		a.Stream(QualityStream("B")).Float64()
	}

	// THEN sensor A's quality stream still starts where b's does
	assert.Equal(t, b.Stream(QualityStream("A")).Float64(), a.Stream(QualityStream("A")).Float64())
}

func TestRandomStreams_ScenarioUsesRunSeed(t *testing.T) {
	r := NewRandomStreams(7)
	want := rand.New(rand.NewSource(7)).Float64()
	assert.Equal(t, want, r.Stream(ScenarioStream).Float64())
	assert.Equal(t, int64(7), r.Seed())
}

func TestRandomStreams_NamesAreDistinctPerSensor(t *testing.T) {
	r := NewRandomStreams(1)
	assert.Same(t, r.Stream(DetectionStream("A")), r.Stream(DetectionStream("A")))
	assert.NotSame(t, r.Stream(DetectionStream("A")), r.Stream(QualityStream("A")))
	assert.NotSame(t, r.Stream(DetectionStream("A")), r.Stream(DetectionStream("B")))
}
