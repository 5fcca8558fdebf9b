// Package trace provides detection-decision recording for post-run analysis.
// This package has no dependencies on sim/sensor; it stores plain data types.
package trace

// Outcome classifies a single detector evaluation.
type Outcome string

const (
	OutcomeOutOfFOV       Outcome = "out-of-fov"
	OutcomeFirstSighting  Outcome = "first-sighting"
	OutcomeNotIlluminated Outcome = "not-illuminated"
	OutcomeMissed         Outcome = "missed"
	OutcomeDetected       Outcome = "detected"
	OutcomeAlreadyTracked Outcome = "already-tracked"
)

// DetectionRecord captures one detector evaluation of a truth update.
type DetectionRecord struct {
	SensorID    string
	EmitterID   string
	Clock       float64 // simulation time of the evaluation
	Position    float64 // truth position of the triggering update
	PrevTime    float64 // time of the previous update; meaningless if !HasPrev
	HasPrev     bool
	Illuminated bool
	Sample      float64 // detection draw; 0 when not drawn
	Outcome     Outcome
}

// TrackRecord captures the lifetime of one finalized track.
type TrackRecord struct {
	SensorID     string
	EmitterID    string
	Started      float64
	Ended        float64
	Updates      int
	FinalQuality float64
}
