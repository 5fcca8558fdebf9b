package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvaluations int
	Outcomes         map[Outcome]int
	IlluminatedCount int
	TracksFinalized  int
	MeanFinalQuality float64
	MaxFinalQuality  float64
	PerSensorTracks  map[string]int // sensor ID → finalized tracks
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Outcomes:        make(map[Outcome]int),
		PerSensorTracks: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvaluations = len(st.Detections)
	for _, d := range st.Detections {
		summary.Outcomes[d.Outcome]++
		if d.Illuminated {
			summary.IlluminatedCount++
		}
	}

	if len(st.Tracks) > 0 {
		total := 0.0
		for _, tr := range st.Tracks {
			summary.PerSensorTracks[tr.SensorID]++
			total += tr.FinalQuality
			if tr.FinalQuality > summary.MaxFinalQuality {
				summary.MaxFinalQuality = tr.FinalQuality
			}
		}
		summary.TracksFinalized = len(st.Tracks)
		summary.MeanFinalQuality = total / float64(len(st.Tracks))
	}

	return summary
}
