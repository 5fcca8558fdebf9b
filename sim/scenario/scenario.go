// Package scenario builds a complete sensor-field run from a Config: one
// kernel, one broker, the sensors and the emitters, plus the trace and
// metrics collectors shared by all of them.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
	"github.com/sensorfield/sensorsim/sim/dist"
	"github.com/sensorfield/sensorsim/sim/emitter"
	"github.com/sensorfield/sensorsim/sim/metrics"
	"github.com/sensorfield/sensorsim/sim/resource"
	"github.com/sensorfield/sensorsim/sim/sensor"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// ErrAlreadyRun is returned by Run on a scenario that has already run.
var ErrAlreadyRun = errors.New("scenario already run")

// SamplerFactory supplies the samplers for a sensor by ID.
type SamplerFactory func(sensorID string) sensor.Samplers

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	samplers SamplerFactory
	runID    string
}

// WithSamplers overrides the configured detection and quality samplers.
func WithSamplers(f SamplerFactory) Option {
	return func(o *buildOptions) { o.samplers = f }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *buildOptions) { o.runID = id }
}

// Scenario is a fully wired, not yet started simulation.
type Scenario struct {
	RunID    string
	Config   Config
	Kernel   *sim.Kernel
	Broker   *broker.Broker
	Sensors  []*sensor.Sensor
	Emitters []*emitter.Emitter
	Trace    *trace.SimulationTrace
	Metrics  *metrics.Collector

	ran bool
}

// Build validates cfg and constructs every component. Fence bounds and
// emitter report windows are drawn from the scenario RNG stream in the
// order sensors, then emitters.
func Build(cfg Config, opts ...Option) (*Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	rng := sim.NewRandomStreams(cfg.Seed)
	draws := rng.Stream(sim.ScenarioStream)

	policy, err := broker.ParseOverflowPolicy(cfg.Subscription.Overflow)
	if err != nil {
		return nil, err
	}
	level := trace.TraceLevel(cfg.Trace)
	if level == "" {
		level = trace.TraceLevelNone
	}
	sc := &Scenario{
		RunID:   o.runID,
		Config:  cfg,
		Kernel:  sim.NewKernel(),
		Trace:   trace.NewSimulationTrace(trace.TraceConfig{Level: level}),
		Metrics: metrics.New(),
	}
	b, err := broker.New(sc.Kernel,
		broker.WithCapacity(cfg.Subscription.Capacity),
		broker.WithOverflow(policy),
		broker.WithObserver(func(topic string, msg broker.Message, _ int) {
			sc.Metrics.ObservePublish(topic, msg.Kind.String())
		}),
	)
	if err != nil {
		return nil, err
	}
	sc.Broker = b

	for _, spec := range cfg.Sensors {
		s, err := sc.buildSensor(spec, draws, rng, o.samplers)
		if err != nil {
			return nil, err
		}
		sc.Sensors = append(sc.Sensors, s)
	}

	for i := 0; i < cfg.Emitters.Count; i++ {
		start, err := cfg.Emitters.Start.Draw(draws)
		if err != nil {
			return nil, fmt.Errorf("emitter %d start: %w", i, err)
		}
		end, err := cfg.Emitters.End.Draw(draws)
		if err != nil {
			return nil, fmt.Errorf("emitter %d end: %w", i, err)
		}
		if start >= end {
			return nil, fmt.Errorf("emitter %d: drawn report window [%d, %d) is empty", i, start, end)
		}
		if err := sc.addEmitter(randomEmitterID(i), start, end, cfg.Emitters.From, cfg.Emitters.To); err != nil {
			return nil, err
		}
	}
	for _, f := range cfg.Emitters.Fixed {
		from, to := f.trajectory(cfg.Emitters)
		if err := sc.addEmitter(f.ID, f.Start, f.End, from, to); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func (sc *Scenario) buildSensor(spec SensorSpec, draws *rand.Rand, rng *sim.RandomStreams, factory SamplerFactory) (*sensor.Sensor, error) {
	fenceMin, err := spec.FenceMin.Draw(draws)
	if err != nil {
		return nil, fmt.Errorf("sensor %q fence_min: %w", spec.ID, err)
	}
	fenceMax, err := spec.FenceMax.Draw(draws)
	if err != nil {
		return nil, fmt.Errorf("sensor %q fence_max: %w", spec.ID, err)
	}

	var samplers sensor.Samplers
	if factory != nil {
		samplers = factory(spec.ID)
	} else {
		if samplers.Detection, err = dist.New(spec.Detection, rng.Stream(sim.DetectionStream(spec.ID))); err != nil {
			return nil, fmt.Errorf("sensor %q detection: %w", spec.ID, err)
		}
		if samplers.Quality, err = dist.New(spec.Quality, rng.Stream(sim.QualityStream(spec.ID))); err != nil {
			return nil, fmt.Errorf("sensor %q quality: %w", spec.ID, err)
		}
	}

	return sensor.New(sc.Kernel, sc.Broker, spec.sensorConfig(sc.Config.Topic, fenceMin, fenceMax), samplers,
		sensor.WithTrace(sc.Trace), sensor.WithMetrics(sc.Metrics))
}

func (sc *Scenario) addEmitter(id string, start, end int, from, to float64) error {
	path, err := emitter.Path(emitter.Times(start, end), emitter.Linear{Start: from, End: to})
	if err != nil {
		return fmt.Errorf("emitter %q: %w", id, err)
	}
	e, err := emitter.New(sc.Kernel, sc.Broker, sc.Config.Topic, id, path)
	if err != nil {
		return err
	}
	sc.Emitters = append(sc.Emitters, e)
	return nil
}

// Run starts every process and runs the kernel to the horizon.
// A process failure aborts the run and is returned.
func (sc *Scenario) Run() (*Results, error) {
	if sc.ran {
		return nil, ErrAlreadyRun
	}
	sc.ran = true

	logrus.Infof("Starting run %s: %d sensors, %d emitters, horizon=%v, seed=%d",
		sc.RunID, len(sc.Sensors), len(sc.Emitters), sc.Config.Horizon, sc.Config.Seed)
	for _, s := range sc.Sensors {
		s.Start()
	}
	for _, e := range sc.Emitters {
		e.Start()
	}
	if err := sc.Kernel.Run(sim.Time(sc.Config.Horizon)); err != nil {
		return nil, fmt.Errorf("run %s: %w", sc.RunID, err)
	}
	return sc.results()
}

// Results is the outcome of one run.
type Results struct {
	RunID          string
	Seed           int64
	Horizon        float64
	EndTime        float64
	EventsExecuted int64
	Published      int64
	Sensors        []SensorResult
	Emitters       []EmitterResult
	Trace          *trace.SimulationTrace
	Summary        *trace.TraceSummary
	Metrics        []metrics.Sample
}

// SensorResult is the per-sensor part of Results.
type SensorResult struct {
	ID          string
	FenceMin    float64
	FenceMax    float64
	SearchWidth float64
	Locations   int
	Occupancy   []sensor.OccupancyRecord
	Tracks      []*sensor.Track // finalized, ordered by emitter ID then finalization
	LiveTracks  int
	Beams       resource.Stats
}

// EmitterResult is the per-emitter part of Results.
type EmitterResult struct {
	ID        string
	Waypoints []emitter.Waypoint
	Published int
	Done      bool
}

func (sc *Scenario) results() (*Results, error) {
	snapshot, err := sc.Metrics.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	r := &Results{
		RunID:          sc.RunID,
		Seed:           sc.Config.Seed,
		Horizon:        sc.Config.Horizon,
		EndTime:        float64(sc.Kernel.Now()),
		EventsExecuted: sc.Kernel.Executed,
		Published:      sc.Broker.Published(),
		Trace:          sc.Trace,
		Summary:        trace.Summarize(sc.Trace),
		Metrics:        snapshot,
	}
	for _, s := range sc.Sensors {
		cfg := s.Config()
		sr := SensorResult{
			ID:          s.ID(),
			FenceMin:    cfg.FenceMin,
			FenceMax:    cfg.FenceMax,
			SearchWidth: searchWidth(s.Locations()),
			Locations:   len(s.Locations()),
			Occupancy:   s.Occupancy().Records(),
			LiveTracks:  s.LiveTracks(),
			Beams:       s.Beams().Stats(),
		}
		for _, id := range s.Tracks().EmitterIDs() {
			sr.Tracks = append(sr.Tracks, s.Tracks().Get(id)...)
		}
		r.Sensors = append(r.Sensors, sr)
	}
	for _, e := range sc.Emitters {
		r.Emitters = append(r.Emitters, EmitterResult{
			ID:        e.ID,
			Waypoints: e.Path(),
			Published: e.Published(),
			Done:      e.Done(),
		})
	}
	return r, nil
}

// searchWidth is the distance between the outermost scan locations.
func searchWidth(locations []float64) float64 {
	if len(locations) == 0 {
		return 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range locations {
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}
	return hi - lo
}
