package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/sensorfield/sensorsim/sim/scenario"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// printResults writes a human-readable run report to w.
func printResults(w io.Writer, res *scenario.Results, withMetrics bool) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintf(w, "Run ID               : %s\n", res.RunID)
	fmt.Fprintf(w, "Seed                 : %d\n", res.Seed)
	fmt.Fprintf(w, "End Time             : %.3f\n", res.EndTime)
	fmt.Fprintf(w, "Events Executed      : %d\n", res.EventsExecuted)
	fmt.Fprintf(w, "Messages Published   : %d\n", res.Published)

	for _, s := range res.Sensors {
		fmt.Fprintf(w, "\n--- %s ---\n", s.ID)
		fmt.Fprintf(w, "Fence                : [%.1f, %.1f] (search width = %.1f, %d locations)\n",
			s.FenceMin, s.FenceMax, s.SearchWidth, s.Locations)
		fmt.Fprintf(w, "Search Scans         : %d\n", len(s.Occupancy))
		fmt.Fprintf(w, "Beam Grants          : %d (peak queue %d)\n", s.Beams.Grants, s.Beams.PeakQueueLen)
		fmt.Fprintf(w, "Finalized Tracks     : %d\n", len(s.Tracks))
		fmt.Fprintf(w, "Live Tracks          : %d\n", s.LiveTracks)
		for _, tr := range s.Tracks {
			fmt.Fprintf(w, "  %-12s [%7.3f, %7.3f] quality %.3f after %d updates\n",
				tr.EmitterID, float64(tr.Started), float64(tr.Ended), tr.Quality, len(tr.Points))
		}
	}

	if res.Trace.Enabled() {
		printTraceSummary(w, res.Summary)
	}

	if withMetrics {
		fmt.Fprintln(w, "\n=== Metrics ===")
		for _, m := range res.Metrics {
			fmt.Fprintf(w, "%s{%s} %g\n", m.Name, m.Labels, m.Value)
		}
	}
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "\n=== Detection Trace ===")
	fmt.Fprintf(w, "Evaluations          : %d\n", s.TotalEvaluations)
	fmt.Fprintf(w, "Illuminated          : %d\n", s.IlluminatedCount)
	outcomes := make([]string, 0, len(s.Outcomes))
	for o := range s.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-20s %d\n", o, s.Outcomes[trace.Outcome(o)])
	}
	fmt.Fprintf(w, "Mean Final Quality   : %.3f\n", s.MeanFinalQuality)
	fmt.Fprintf(w, "Max Final Quality    : %.3f\n", s.MaxFinalQuality)
}
