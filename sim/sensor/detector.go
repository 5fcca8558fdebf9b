package sensor

import (
	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim/trace"
)

// evaluate runs the detector state machine for one truth update:
// out of view -> nothing; no beam near the emitter since the previous
// report -> nothing; otherwise draw for detection and start a tracker if
// none is live for the emitter.
func (s *Sensor) evaluate(u Update) {
	now := u.Current
	rec := trace.DetectionRecord{
		SensorID:  s.cfg.ID,
		EmitterID: now.OriginID,
		Clock:     float64(s.k.Now()),
		Position:  now.Value,
		HasPrev:   u.Prev != nil,
	}
	if u.Prev != nil {
		rec.PrevTime = float64(u.Prev.Time)
	}

	rec.Outcome = s.decide(u, &rec)

	s.trace.RecordDetection(rec)
	s.metrics.ObserveDetection(s.cfg.ID, string(rec.Outcome))
}

func (s *Sensor) decide(u Update, rec *trace.DetectionRecord) trace.Outcome {
	now := u.Current
	if !s.cfg.FOV.Contains(now.Value) {
		return trace.OutcomeOutOfFOV
	}
	logrus.Debugf("%s in fov of %s", now.OriginID, s.cfg.ID)

	// The first report has no interval to correlate against.
	if u.Prev == nil {
		return trace.OutcomeFirstSighting
	}

	rec.Illuminated = s.occupancy.Illuminated(u.Prev.Time, now.Time, now.Value, s.cfg.IlluminationThreshold)
	if !rec.Illuminated {
		return trace.OutcomeNotIlluminated
	}

	rec.Sample = s.samplers.Detection.Sample()
	if rec.Sample <= s.cfg.DetectionThreshold {
		return trace.OutcomeMissed
	}
	logrus.Debugf("%s detected %s", s.cfg.ID, now.OriginID)

	if _, ok := s.live[now.OriginID]; ok {
		return trace.OutcomeAlreadyTracked
	}
	s.startTracker(now.OriginID)
	return trace.OutcomeDetected
}
