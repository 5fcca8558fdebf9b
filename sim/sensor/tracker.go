package sensor

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim/metrics"
	"github.com/sensorfield/sensorsim/sim/resource"
	"github.com/sensorfield/sensorsim/sim/trace"
)

// tracker maintains one track while its emitter stays in view: take a beam
// at track priority, dwell, release, add a quality increment, pause, repeat.
type tracker struct {
	s     *Sensor
	track *Track
	grant *resource.Grant
}

func (s *Sensor) startTracker(emitterID string) {
	t := &tracker{s: s, track: newTrack(s.cfg.ID, emitterID, s.k.Now())}
	s.live[emitterID] = t.track
	s.metrics.TrackStarted(s.cfg.ID)
	logrus.Infof("%s: starting track for %s at %.3f", s.cfg.ID, emitterID, float64(s.k.Now()))
	s.k.Process(fmt.Sprintf("%s/tracker/%s", s.cfg.ID, emitterID), t.loop)
}

func (t *tracker) loop() {
	if !t.s.tracking(t.track.EmitterID) {
		t.s.finalize(t.track)
		return
	}
	t.s.beams.Request(t.s.cfg.TrackPriority, t.onGrant)
}

func (t *tracker) onGrant(g *resource.Grant) {
	t.grant = g
	t.s.metrics.ObserveGrant(t.s.cfg.ID, metrics.PurposeTrack, float64(g.Wait()))
	t.s.k.Timeout(t.s.cfg.TrackDwell, t.onDwell)
}

func (t *tracker) onDwell() {
	t.s.beams.Release(t.grant)
	t.grant = nil
	t.track.Update(t.s.k.Now(), t.s.samplers.Quality.Sample())
	t.s.metrics.TrackUpdated(t.s.cfg.ID)
	logrus.Debugf("track quality for %s is %f", t.track.EmitterID, t.track.Quality)
	t.s.k.Timeout(t.s.cfg.TrackRevisit, t.loop)
}

// finalize moves a track from live to the finalized store.
func (s *Sensor) finalize(tr *Track) {
	if s.live[tr.EmitterID] != tr {
		panic(fmt.Sprintf("sensor %q: finalizing %s which is not the live track", s.cfg.ID, tr.EmitterID))
	}
	delete(s.live, tr.EmitterID)
	s.final.finalize(tr, s.k.Now())
	s.metrics.TrackFinalized(s.cfg.ID)
	s.trace.RecordTrack(trace.TrackRecord{
		SensorID:     s.cfg.ID,
		EmitterID:    tr.EmitterID,
		Started:      float64(tr.Started),
		Ended:        float64(tr.Ended),
		Updates:      len(tr.Points),
		FinalQuality: tr.Quality,
	})
	logrus.Infof("%s: track for %s finalized at %.3f, quality %.3f after %d updates",
		s.cfg.ID, tr.EmitterID, float64(tr.Ended), tr.Quality, len(tr.Points))
}
