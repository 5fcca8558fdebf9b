package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorfield/sensorsim/sim/broker"
	"github.com/sensorfield/sensorsim/sim/dist"
	"github.com/sensorfield/sensorsim/sim/sensor"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// crossingConfig is one reference sensor on the fence [200, 230] and one
// emitter reporting at t=5..40 that sits on the FOV edge at both ends.
func crossingConfig() Config {
	cfg := DefaultConfig()
	cfg.Horizon = 50
	cfg.Trace = string(trace.TraceLevelDecisions)
	s := DefaultSensorSpec("Sensor A")
	s.FenceMin, s.FenceMax = Fixed(200), Fixed(230)
	cfg.Sensors = []SensorSpec{s}
	cfg.Emitters = EmitterSpec{
		From:  200,
		To:    500,
		Fixed: []FixedEmitter{{ID: "Missile 0", Start: 5, End: 41}},
	}
	return cfg
}

func deterministicSamplers(string) sensor.Samplers {
	return sensor.Samplers{Detection: dist.NewSequence(0.9), Quality: dist.Constant(0.25)}
}

func TestScenario_EndToEndSingleTrack(t *testing.T) {
	// GIVEN the crossing scenario with detections that always succeed
	sc, err := Build(crossingConfig(), WithSamplers(deterministicSamplers), WithRunID("run-1"))
	require.NoError(t, err)

	// WHEN it runs to the horizon
	res, err := sc.Run()
	require.NoError(t, err)

	// THEN exactly one track was formed and finalized once
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 50.0, res.EndTime)
	require.Len(t, res.Sensors, 1)
	sr := res.Sensors[0]
	assert.Equal(t, 31, sr.Locations)
	assert.Equal(t, 30.0, sr.SearchWidth)
	assert.Zero(t, sr.LiveTracks)
	require.Len(t, sr.Tracks, 1)
	tr := sr.Tracks[0]
	assert.Equal(t, "Missile 0", tr.EmitterID)
	assert.GreaterOrEqual(t, float64(tr.Started), 6.0)
	assert.GreaterOrEqual(t, float64(tr.Ended), 40.0)

	// AND the quality series is monotone in time
	require.NotEmpty(t, tr.Points)
	for i := 1; i < len(tr.Points); i++ {
		assert.GreaterOrEqual(t, tr.Points[i].Time, tr.Points[i-1].Time)
		assert.Greater(t, tr.Points[i].Quality, tr.Points[i-1].Quality)
	}

	// AND search ran throughout
	require.NotEmpty(t, sr.Occupancy)
	assert.Greater(t, sr.Beams.Grants, int64(len(sr.Occupancy)))

	// AND the emitter published 36 positions and one termination
	require.Len(t, res.Emitters, 1)
	assert.True(t, res.Emitters[0].Done)
	assert.Equal(t, 36, res.Emitters[0].Published)
	assert.Len(t, res.Emitters[0].Waypoints, 36)
	assert.Equal(t, int64(37), res.Published)

	// AND the summary agrees with the tracks
	assert.Equal(t, 1, res.Summary.TracksFinalized)
	assert.Equal(t, 1, res.Summary.Outcomes[trace.OutcomeDetected])
	assert.Equal(t, 1, res.Summary.PerSensorTracks["Sensor A"])
	assert.Equal(t, 36, res.Summary.TotalEvaluations)
}

func TestScenario_MetricsMirrorRun(t *testing.T) {
	sc, err := Build(crossingConfig(), WithSamplers(deterministicSamplers))
	require.NoError(t, err)
	res, err := sc.Run()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, s := range res.Metrics {
		byName[s.Name+"{"+s.Labels+"}"] = s.Value
	}
	assert.Equal(t, 1.0, byName[`sensorsim_tracks_finalized_total{sensor="Sensor A"}`])
	assert.Equal(t, 0.0, byName[`sensorsim_tracks_live{sensor="Sensor A"}`])
	assert.Equal(t, 36.0, byName[`sensorsim_broker_published_total{kind="THREAT_POSITION",topic="THREAT_POSITION"}`])
	assert.Equal(t, 1.0, byName[`sensorsim_broker_published_total{kind="THREAT_STATUS",topic="THREAT_POSITION"}`])
	assert.Equal(t, float64(len(res.Sensors[0].Occupancy)), byName[`sensorsim_search_scans_total{sensor="Sensor A"}`])
}

func TestScenario_SameSeedSameRun(t *testing.T) {
	// GIVEN the default scenario built twice from the same seed
	run := func() *Results {
		sc, err := Build(DefaultConfig(), WithRunID("fixed"))
		require.NoError(t, err)
		res, err := sc.Run()
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()

	// THEN fences, emitter windows and outcomes are identical
	require.Len(t, a.Sensors, 2)
	for i := range a.Sensors {
		assert.Equal(t, a.Sensors[i].FenceMin, b.Sensors[i].FenceMin)
		assert.Equal(t, a.Sensors[i].FenceMax, b.Sensors[i].FenceMax)
		assert.Equal(t, len(a.Sensors[i].Occupancy), len(b.Sensors[i].Occupancy))
		assert.Equal(t, len(a.Sensors[i].Tracks), len(b.Sensors[i].Tracks))
		assert.GreaterOrEqual(t, a.Sensors[i].FenceMin, 190.0)
		assert.Less(t, a.Sensors[i].FenceMin, 210.0)
		assert.GreaterOrEqual(t, a.Sensors[i].FenceMax, 215.0)
		assert.Less(t, a.Sensors[i].FenceMax, 235.0)
	}
	require.Len(t, a.Emitters, 10)
	for i := range a.Emitters {
		assert.Equal(t, a.Emitters[i].Waypoints, b.Emitters[i].Waypoints)
	}
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.EventsExecuted, b.EventsExecuted)
}

func TestScenario_EmittersFollowDrawnWindows(t *testing.T) {
	sc, err := Build(DefaultConfig())
	require.NoError(t, err)
	for _, e := range sc.Emitters {
		path := e.Path()
		require.NotEmpty(t, path)
		first, last := path[0], path[len(path)-1]
		assert.GreaterOrEqual(t, float64(first.Time), 0.0)
		assert.Less(t, float64(first.Time), 20.0)
		assert.GreaterOrEqual(t, float64(last.Time), 49.0)
		assert.Less(t, float64(last.Time), 99.0)
		assert.Equal(t, 100.0, first.Position)
		assert.Equal(t, 1000.0, last.Position)
	}
}

func TestScenario_RunTwice(t *testing.T) {
	sc, err := Build(crossingConfig(), WithSamplers(deterministicSamplers))
	require.NoError(t, err)
	_, err = sc.Run()
	require.NoError(t, err)
	_, err = sc.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestScenario_NoSubscribersAbortsRun(t *testing.T) {
	// GIVEN emitters but no sensors listening on the topic
	cfg := crossingConfig()
	cfg.Sensors = nil

	sc, err := Build(cfg)
	require.NoError(t, err)

	// WHEN the first report is published
	_, err = sc.Run()

	// THEN the run fails with the missing-subscriber error
	var nse *broker.NoSubscribersError
	require.True(t, errors.As(err, &nse))
	assert.Equal(t, "THREAT_POSITION", nse.Topic)
	assert.Equal(t, 5.0, float64(sc.Kernel.Now()))
}

func TestBuild_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative horizon", func(c *Config) { c.Horizon = -1 }, "horizon"},
		{"unknown overflow policy", func(c *Config) { c.Subscription.Overflow = "drop" }, `unknown overflow policy "drop"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			sc, err := Build(cfg)
			require.Error(t, err)
			assert.Nil(t, sc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_DrawnEmptyWindowIsAnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Emitters.Start = Fixed(60)
	cfg.Emitters.End = Fixed(60)
	_, err := Build(cfg)
	assert.ErrorContains(t, err, "empty")
}
