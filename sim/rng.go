package sim

import (
	"hash/fnv"
	"math/rand"
)

// ScenarioStream names the stream that draws scan fences and emitter
// report windows. It is seeded with the run seed itself, so a scenario
// layout can be reproduced from the seed alone.
const ScenarioStream = "scenario"

// DetectionStream names a sensor's detection-success stream.
func DetectionStream(sensorID string) string {
	return "sensor_" + sensorID + "/detection"
}

// QualityStream names a sensor's track-quality stream.
func QualityStream(sensorID string) string {
	return "sensor_" + sensorID + "/quality"
}

// RandomStreams hands out one independent *rand.Rand per named stream,
// all derived from a single run seed. A named stream other than
// ScenarioStream is seeded with seed ^ fnv1a64(name), so adding a sensor
// or drawing more detections on one sensor never shifts another
// sensor's outcomes or the scenario layout.
//
// Not safe for concurrent use; the kernel is single-threaded.
type RandomStreams struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewRandomStreams creates the stream set for a run seed.
func NewRandomStreams(seed int64) *RandomStreams {
	return &RandomStreams{seed: seed, streams: make(map[string]*rand.Rand)}
}

// Stream returns the generator for name, creating it on first use.
// Repeated calls with the same name share one generator.
func (r *RandomStreams) Stream(name string) *rand.Rand {
	if rng, ok := r.streams[name]; ok {
		return rng
	}
	seed := r.seed
	if name != ScenarioStream {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	r.streams[name] = rng
	return rng
}

// Seed returns the run seed.
func (r *RandomStreams) Seed() int64 { return r.seed }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
