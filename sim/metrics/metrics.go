// Package metrics exposes run counters as prometheus collectors on a
// private registry. Each run owns its own Collector so parallel tests and
// repeated runs never share state.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "sensorsim"

// Beam purposes used as label values.
const (
	PurposeSearch = "search"
	PurposeTrack  = "track"
)

// Collector holds all simulation metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	Registry *prometheus.Registry

	BeamGrants        *prometheus.CounterVec
	BeamWait          *prometheus.HistogramVec
	Scans             *prometheus.CounterVec
	Detections        *prometheus.CounterVec
	LiveTracks        *prometheus.GaugeVec
	TracksFinalized   *prometheus.CounterVec
	TrackUpdates      *prometheus.CounterVec
	MessagesPublished *prometheus.CounterVec
}

// New creates a Collector with every metric registered.
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),

		BeamGrants: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "beams",
				Name:      "grants_total",
				Help:      "Beam units granted, by sensor and purpose",
			},
			[]string{"sensor", "purpose"},
		),

		BeamWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "beams",
				Name:      "wait_time",
				Help:      "Simulation time a beam request waited before being granted",
				Buckets:   []float64{0, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"sensor", "purpose"},
		),

		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "scans_total",
				Help:      "Completed search scans (occupancy records)",
			},
			[]string{"sensor"},
		),

		Detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "detector",
				Name:      "evaluations_total",
				Help:      "Detector evaluations, by outcome",
			},
			[]string{"sensor", "outcome"},
		),

		LiveTracks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "tracks",
				Name:      "live",
				Help:      "Tracks currently maintained",
			},
			[]string{"sensor"},
		),

		TracksFinalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracks",
				Name:      "finalized_total",
				Help:      "Tracks moved to the finalized store",
			},
			[]string{"sensor"},
		),

		TrackUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracks",
				Name:      "updates_total",
				Help:      "Track quality updates",
			},
			[]string{"sensor"},
		),

		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "broker",
				Name:      "published_total",
				Help:      "Messages accepted by the broker, by topic and kind",
			},
			[]string{"topic", "kind"},
		),
	}

	c.Registry.MustRegister(
		c.BeamGrants,
		c.BeamWait,
		c.Scans,
		c.Detections,
		c.LiveTracks,
		c.TracksFinalized,
		c.TrackUpdates,
		c.MessagesPublished,
	)
	return c
}

// ObserveGrant records a beam grant and how long it waited.
func (c *Collector) ObserveGrant(sensor, purpose string, wait float64) {
	if c == nil {
		return
	}
	c.BeamGrants.WithLabelValues(sensor, purpose).Inc()
	c.BeamWait.WithLabelValues(sensor, purpose).Observe(wait)
}

// ObserveScan records one completed search scan.
func (c *Collector) ObserveScan(sensor string) {
	if c == nil {
		return
	}
	c.Scans.WithLabelValues(sensor).Inc()
}

// ObserveDetection records a detector evaluation outcome.
func (c *Collector) ObserveDetection(sensor, outcome string) {
	if c == nil {
		return
	}
	c.Detections.WithLabelValues(sensor, outcome).Inc()
}

// TrackStarted increments the live-track gauge.
func (c *Collector) TrackStarted(sensor string) {
	if c == nil {
		return
	}
	c.LiveTracks.WithLabelValues(sensor).Inc()
}

// TrackUpdated records a quality update.
func (c *Collector) TrackUpdated(sensor string) {
	if c == nil {
		return
	}
	c.TrackUpdates.WithLabelValues(sensor).Inc()
}

// TrackFinalized moves one track from live to finalized.
func (c *Collector) TrackFinalized(sensor string) {
	if c == nil {
		return
	}
	c.LiveTracks.WithLabelValues(sensor).Dec()
	c.TracksFinalized.WithLabelValues(sensor).Inc()
}

// ObservePublish records an accepted broker publish.
func (c *Collector) ObservePublish(topic, kind string) {
	if c == nil {
		return
	}
	c.MessagesPublished.WithLabelValues(topic, kind).Inc()
}

// Sample is one flattened counter, gauge or histogram-count value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers the registry and flattens it into sorted samples.
// Histograms report their observation count.
func (c *Collector) Snapshot() ([]Sample, error) {
	if c == nil {
		return nil, nil
	}
	families, err := c.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: formatLabels(m.GetLabel()),
				Value:  value(mf.GetType(), m),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return strings.Join(parts, ",")
}
