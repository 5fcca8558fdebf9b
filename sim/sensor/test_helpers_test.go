package sensor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
	"github.com/sensorfield/sensorsim/sim/dist"
	"github.com/sensorfield/sensorsim/sim/emitter"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// testRig wires one sensor to a fresh kernel and broker.
type testRig struct {
	k      *sim.Kernel
	b      *broker.Broker
	s      *Sensor
	trace  *trace.SimulationTrace
	detect *dist.Sequence
}

func newTestRig(t *testing.T, cfg Config, detect *dist.Sequence, quality dist.Sampler) *testRig {
	t.Helper()
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	s, err := New(k, b, cfg, Samplers{Detection: detect, Quality: quality}, WithTrace(st))
	require.NoError(t, err)
	return &testRig{k: k, b: b, s: s, trace: st, detect: detect}
}

// crossingPath returns reports at integer times [0, end) for an emitter at
// 200 + (t-5)*60/7: on the FOV edge at t=5 and leaving it at t=40.
func crossingPath(end int) []emitter.Waypoint {
	path := make([]emitter.Waypoint, 0, end)
	for i := 0; i < end; i++ {
		path = append(path, emitter.Waypoint{
			Time:     sim.Time(i),
			Position: 200 + float64(i-5)*60/7,
		})
	}
	return path
}

func outcomes(st *trace.SimulationTrace, emitterID string) []trace.Outcome {
	var out []trace.Outcome
	for _, d := range st.Detections {
		if d.EmitterID == emitterID {
			out = append(out, d.Outcome)
		}
	}
	return out
}

func pos(origin string, t sim.Time, p float64) broker.Message {
	return broker.PositionMessage(origin, t, p)
}
