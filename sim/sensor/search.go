package sensor

import (
	"github.com/sensorfield/sensorsim/sim/metrics"
	"github.com/sensorfield/sensorsim/sim/resource"
)

// searcher repeatedly scans one fence location: take a beam at search
// priority, hold it for the service time, release it, log the scan.
type searcher struct {
	s        *Sensor
	location float64
	grant    *resource.Grant
}

func (p *searcher) request() {
	p.s.beams.Request(p.s.cfg.SearchPriority, p.onGrant)
}

func (p *searcher) onGrant(g *resource.Grant) {
	p.grant = g
	p.s.metrics.ObserveGrant(p.s.cfg.ID, metrics.PurposeSearch, float64(g.Wait()))
	p.s.k.Timeout(p.s.cfg.SearchServiceTime, p.onScanned)
}

func (p *searcher) onScanned() {
	p.s.beams.Release(p.grant)
	p.grant = nil
	p.s.occupancy.Append(p.location, p.s.k.Now())
	p.s.metrics.ObserveScan(p.s.cfg.ID)
	p.request()
}
