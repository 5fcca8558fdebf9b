// Package sensor models a sensor that searches a fence of locations with a
// scarce set of beams, correlates published truth positions with its beam
// history to detect emitters, and maintains quality-scored tracks.
//
// Each sensor runs these processes on the shared kernel:
//   - truth ingestion: one loop reading the position subscription
//   - search: one loop per fence location, low beam priority
//   - detector: one evaluation per truth update
//   - tracker: one loop per confirmed emitter, high beam priority
package sensor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
	"github.com/sensorfield/sensorsim/sim/metrics"
	"github.com/sensorfield/sensorsim/sim/resource"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// Option configures a Sensor.
type Option func(*Sensor)

// WithTrace records detector decisions and finalized tracks into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Sensor) { s.trace = st }
}

// WithMetrics reports beam, detection and track activity to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Sensor) { s.metrics = c }
}

// Sensor owns its beams, truth cache, occupancy log and tracks.
type Sensor struct {
	cfg       Config
	k         *sim.Kernel
	beams     *resource.Pool
	sub       *broker.Subscription
	samplers  Samplers
	locations []float64

	truth     *TruthState
	occupancy *OccupancyLog
	live      map[string]*Track
	final     *TrackStore

	trace   *trace.SimulationTrace
	metrics *metrics.Collector
	started bool
}

// New validates cfg, creates the beam pool and subscribes to cfg.Topic.
// Processes do not run until Start.
func New(k *sim.Kernel, b *broker.Broker, cfg Config, samplers Samplers, opts ...Option) (*Sensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := samplers.validate(); err != nil {
		return nil, fmt.Errorf("sensor %q: %w", cfg.ID, err)
	}
	beams, err := resource.NewPool(k, cfg.ID+"/beams", cfg.BeamCapacity)
	if err != nil {
		return nil, fmt.Errorf("sensor %q: %w", cfg.ID, err)
	}
	s := &Sensor{
		cfg:       cfg,
		k:         k,
		beams:     beams,
		sub:       b.Subscribe(cfg.Topic),
		samplers:  samplers,
		locations: FenceLocations(cfg.FenceMin, cfg.FenceMax, cfg.FenceStep),
		truth:     NewTruthState(),
		occupancy: &OccupancyLog{},
		live:      make(map[string]*Track),
		final:     NewTrackStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches truth ingestion and one search process per fence location.
// Calling Start twice panics.
func (s *Sensor) Start() {
	if s.started {
		panic(fmt.Sprintf("sensor %q started twice", s.cfg.ID))
	}
	s.started = true
	logrus.Infof("%s searching %d locations in [%.1f, %.1f] with %d beams",
		s.cfg.ID, len(s.locations), s.cfg.FenceMin, s.cfg.FenceMax, s.cfg.BeamCapacity)
	s.k.Process(s.cfg.ID+"/truth", s.ingest)
	for _, loc := range s.locations {
		p := &searcher{s: s, location: loc}
		s.k.Process(fmt.Sprintf("%s/search@%.1f", s.cfg.ID, loc), p.request)
	}
}

// ID returns the sensor identifier.
func (s *Sensor) ID() string { return s.cfg.ID }

// Config returns the sensor configuration.
func (s *Sensor) Config() Config { return s.cfg }

// Beams returns the sensor's beam pool.
func (s *Sensor) Beams() *resource.Pool { return s.beams }

// Locations returns the discretized scan fence.
func (s *Sensor) Locations() []float64 { return append([]float64(nil), s.locations...) }

// Occupancy returns the search history.
func (s *Sensor) Occupancy() *OccupancyLog { return s.occupancy }

// Truth returns the sensor's truth cache.
func (s *Sensor) Truth() *TruthState { return s.truth }

// Tracks returns the finalized track store.
func (s *Sensor) Tracks() *TrackStore { return s.final }

// LiveTrack returns the live track for an emitter, or nil.
func (s *Sensor) LiveTrack(emitterID string) *Track { return s.live[emitterID] }

// LiveTracks returns the number of tracks currently maintained.
func (s *Sensor) LiveTracks() int { return len(s.live) }

// ingest suspends on the subscription and dispatches each message by kind.
func (s *Sensor) ingest() {
	s.sub.Next(s.onMessage)
}

func (s *Sensor) onMessage(msg broker.Message) {
	switch msg.Kind {
	case broker.KindPosition:
		u := s.truth.Update(msg)
		s.k.Schedule(0, s.cfg.ID+"/detector", func() { s.evaluate(u) })
	case broker.KindStatus:
		s.onStatus(msg)
	default:
		panic(fmt.Sprintf("sensor %q: unknown message kind %v from %s", s.cfg.ID, msg.Kind, msg.OriginID))
	}
	s.ingest()
}

func (s *Sensor) onStatus(msg broker.Message) {
	switch msg.Status() {
	case broker.StatusLaunched:
		logrus.Debugf("%s: %s launched", s.cfg.ID, msg.OriginID)
	case broker.StatusTerminated:
		if !s.truth.Terminate(msg.OriginID) {
			logrus.Warnf("%s: termination of %s which never reported a position", s.cfg.ID, msg.OriginID)
		}
	default:
		panic(fmt.Sprintf("sensor %q: unknown status %v from %s", s.cfg.ID, msg.Status(), msg.OriginID))
	}
}

// tracking reports whether a tracker for emitterID should keep running.
func (s *Sensor) tracking(emitterID string) bool {
	if s.truth.Terminated(emitterID) {
		return false
	}
	return s.cfg.FOV.Contains(s.truth.Latest(emitterID).Value)
}
