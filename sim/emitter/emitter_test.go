package emitter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorfield/sensorsim/sim"
	"github.com/sensorfield/sensorsim/sim/broker"
)

const topic = "THREAT_POSITION"

func collect(sub *broker.Subscription) *[]broker.Message {
	got := &[]broker.Message{}
	var loop func(broker.Message)
	loop = func(m broker.Message) {
		*got = append(*got, m)
		sub.Next(loop)
	}
	sub.Next(loop)
	return got
}

func TestLinear_EvenlySpacedInclusive(t *testing.T) {
	got := Linear{Start: 100, End: 1000}.Positions(Times(0, 10))
	require.Len(t, got, 10)
	assert.Equal(t, 100.0, got[0])
	assert.Equal(t, 1000.0, got[9])
	assert.InDelta(t, 200.0, got[1], 1e-9)
	assert.Equal(t, []float64{5}, Linear{Start: 5, End: 9}.Positions(Times(3, 4)))
}

func TestTimes_HalfOpen(t *testing.T) {
	assert.Equal(t, []sim.Time{2, 3, 4}, Times(2, 5))
	assert.Empty(t, Times(5, 5))
}

func TestNew_ValidatesPath(t *testing.T) {
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)

	_, err = New(k, b, topic, "m0", nil)
	assert.True(t, errors.Is(err, ErrEmptyPath))

	_, err = New(k, b, topic, "m0", []Waypoint{{Time: 3, Position: 1}, {Time: 3, Position: 2}})
	assert.Error(t, err)

	_, err = New(k, b, topic, "m0", []Waypoint{{Time: -1, Position: 1}})
	assert.Error(t, err)
}

func TestEmitter_PublishesEachWaypointAtItsTime(t *testing.T) {
	// GIVEN an emitter with reports at t=5,6,7
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)
	got := collect(b.Subscribe(topic))

	path, err := Path(Times(5, 8), Linear{Start: 100, End: 300})
	require.NoError(t, err)
	e, err := New(k, b, topic, "m0", path)
	require.NoError(t, err)

	// WHEN the simulation runs
	e.Start()
	require.NoError(t, k.Run(100))

	// THEN three positions arrive stamped with their emission time, then a termination
	require.Len(t, *got, 4)
	for i, want := range []struct {
		t   sim.Time
		pos float64
	}{{5, 100}, {6, 200}, {7, 300}} {
		m := (*got)[i]
		assert.Equal(t, broker.KindPosition, m.Kind)
		assert.Equal(t, want.t, m.Time)
		assert.InDelta(t, want.pos, m.Value, 1e-9)
		assert.Equal(t, "m0", m.OriginID)
	}
	last := (*got)[3]
	assert.Equal(t, broker.KindStatus, last.Kind)
	assert.Equal(t, broker.StatusTerminated, last.Status())
	assert.Equal(t, sim.Time(8), last.Time)
	assert.True(t, e.Done())
	assert.Equal(t, 3, e.Published())
}

func TestEmitter_HonoursGapsBetweenReports(t *testing.T) {
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)
	got := collect(b.Subscribe(topic))

	e, err := New(k, b, topic, "m1", []Waypoint{{Time: 1, Position: 10}, {Time: 4, Position: 20}})
	require.NoError(t, err)
	e.Start()
	require.NoError(t, k.Run(100))

	require.Len(t, *got, 3)
	assert.Equal(t, sim.Time(1), (*got)[0].Time)
	assert.Equal(t, sim.Time(4), (*got)[1].Time)
	assert.Equal(t, sim.Time(5), (*got)[2].Time)
}

func TestEmitter_NoSubscribersAbortsSimulation(t *testing.T) {
	// GIVEN an emitter whose topic nobody subscribed to
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)
	e, err := New(k, b, topic, "m2", []Waypoint{{Time: 2, Position: 1}})
	require.NoError(t, err)

	// WHEN the simulation runs
	e.Start()
	err = k.Run(100)

	// THEN the run fails with the typed broker error at the first publish
	var nse *broker.NoSubscribersError
	require.True(t, errors.As(err, &nse))
	assert.Equal(t, topic, nse.Topic)
	assert.Equal(t, sim.Time(2), k.Now())
	assert.Equal(t, 0, e.Published())
}

func TestEmitter_StartAfterFirstReportPanics(t *testing.T) {
	// GIVEN a kernel already advanced past the emitter's first report time
	k := sim.NewKernel()
	b, err := broker.New(k)
	require.NoError(t, err)
	b.Subscribe(topic)
	e, err := New(k, b, topic, "m3", []Waypoint{{Time: 2, Position: 1}, {Time: 3, Position: 2}})
	require.NoError(t, err)
	require.NoError(t, k.Run(5))

	// WHEN the emitter starts late
	// THEN it fails fast instead of publishing stale reports
	assert.Panics(t, func() { e.Start() })
	assert.Equal(t, 0, e.Published())
}
