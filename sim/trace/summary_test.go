package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace(t *testing.T) {
	s := Summarize(nil)
	if s.TotalEvaluations != 0 || s.TracksFinalized != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
	if s.Outcomes == nil || s.PerSensorTracks == nil {
		t.Error("maps must be initialized")
	}
}

func TestSummarize_CountsOutcomesAndQualities(t *testing.T) {
	// GIVEN a trace with mixed outcomes and two tracks
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordDetection(DetectionRecord{Outcome: OutcomeOutOfFOV})
	st.RecordDetection(DetectionRecord{Outcome: OutcomeMissed, Illuminated: true})
	st.RecordDetection(DetectionRecord{Outcome: OutcomeDetected, Illuminated: true})
	st.RecordDetection(DetectionRecord{Outcome: OutcomeNotIlluminated})
	st.RecordTrack(TrackRecord{SensorID: "A", FinalQuality: 4})
	st.RecordTrack(TrackRecord{SensorID: "B", FinalQuality: 2})

	// WHEN summarizing
	s := Summarize(st)

	// THEN counts and quality stats are aggregated
	if s.TotalEvaluations != 4 {
		t.Errorf("TotalEvaluations = %d, want 4", s.TotalEvaluations)
	}
	if s.IlluminatedCount != 2 {
		t.Errorf("IlluminatedCount = %d, want 2", s.IlluminatedCount)
	}
	if s.Outcomes[OutcomeDetected] != 1 || s.Outcomes[OutcomeMissed] != 1 {
		t.Errorf("unexpected outcome counts %v", s.Outcomes)
	}
	if s.TracksFinalized != 2 || s.PerSensorTracks["A"] != 1 || s.PerSensorTracks["B"] != 1 {
		t.Errorf("unexpected track counts %+v", s)
	}
	if math.Abs(s.MeanFinalQuality-3) > 1e-12 || s.MaxFinalQuality != 4 {
		t.Errorf("mean/max = %v/%v, want 3/4", s.MeanFinalQuality, s.MaxFinalQuality)
	}
}
