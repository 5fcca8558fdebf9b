// Package resource implements a capacity-constrained pool of interchangeable
// units guarded by a priority-ordered wait queue.
package resource

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim"
)

// ErrInvalidCapacity is returned when a pool is constructed with fewer than one unit.
var ErrInvalidCapacity = errors.New("resource pool capacity must be at least 1")

// Grant is a single request for one unit of a Pool.
// A Grant is owned by the requesting process until it is released.
type Grant struct {
	pool      *Pool
	priority  int
	enqueued  sim.Time
	grantedAt sim.Time
	seq       uint64
	index     int // position in the wait heap, -1 when not waiting
	state     grantState
	onGrant   func(*Grant)
}

type grantState int

const (
	grantWaiting grantState = iota
	grantHeld
	grantReleased
	grantCancelled
)

// Priority returns the priority the grant was requested with (lower is more urgent).
func (g *Grant) Priority() int { return g.priority }

// EnqueuedAt returns the simulation time of the request.
func (g *Grant) EnqueuedAt() sim.Time { return g.enqueued }

// GrantedAt returns the time the unit was handed over. Zero until granted.
func (g *Grant) GrantedAt() sim.Time { return g.grantedAt }

// Held reports whether the grant currently owns a unit.
func (g *Grant) Held() bool { return g.state == grantHeld }

// Wait returns how long the request queued before being granted.
func (g *Grant) Wait() sim.Time { return g.grantedAt - g.enqueued }

// Stats summarizes pool activity over a run.
type Stats struct {
	Requests      int64
	Grants        int64
	Cancellations int64
	PeakQueueLen  int
}

// Pool is a fixed-capacity set of units. Free units are granted in the same
// instant they are requested; otherwise requests wait ordered by
// (priority, enqueue time, arrival order). Holders are never preempted.
type Pool struct {
	k        *sim.Kernel
	name     string
	capacity int
	inUse    int
	waiters  waitHeap
	nextSeq  uint64
	stats    Stats
}

// NewPool creates a pool with the given capacity.
func NewPool(k *sim.Kernel, name string, capacity int) (*Pool, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("pool %q: %w (got %d)", name, ErrInvalidCapacity, capacity)
	}
	return &Pool{
		k:        k,
		name:     name,
		capacity: capacity,
		waiters:  make(waitHeap, 0),
	}, nil
}

// Capacity returns the number of units in the pool.
func (p *Pool) Capacity() int { return p.capacity }

// InUse returns the number of units currently held.
func (p *Pool) InUse() int { return p.inUse }

// QueueLen returns the number of requests waiting for a unit.
func (p *Pool) QueueLen() int { return p.waiters.Len() }

// Stats returns a copy of the pool counters.
func (p *Pool) Stats() Stats { return p.stats }

// Request asks for one unit at the given priority. onGrant resumes the
// requesting process once the unit is owned; it always runs from the kernel
// loop, never synchronously inside Request.
func (p *Pool) Request(priority int, onGrant func(*Grant)) *Grant {
	if onGrant == nil {
		panic(fmt.Sprintf("pool %q: Request with nil continuation", p.name))
	}
	p.nextSeq++
	g := &Grant{
		pool:     p,
		priority: priority,
		enqueued: p.k.Now(),
		seq:      p.nextSeq,
		index:    -1,
		state:    grantWaiting,
		onGrant:  onGrant,
	}
	p.stats.Requests++
	heap.Push(&p.waiters, g)
	p.dispatch()
	if n := p.waiters.Len(); n > p.stats.PeakQueueLen {
		p.stats.PeakQueueLen = n
	}
	return g
}

// Release returns a held unit to the pool and grants the best waiter.
// Releasing a grant that is still waiting withdraws the request.
// Releasing twice is an invariant violation and panics.
func (p *Pool) Release(g *Grant) {
	if g.pool != p {
		panic(fmt.Sprintf("pool %q: release of a grant owned by pool %q", p.name, g.pool.name))
	}
	switch g.state {
	case grantHeld:
		g.state = grantReleased
		p.inUse--
	case grantWaiting:
		heap.Remove(&p.waiters, g.index)
		g.state = grantCancelled
		p.stats.Cancellations++
		return
	default:
		panic(fmt.Sprintf("pool %q: grant #%d released twice", p.name, g.seq))
	}
	p.dispatch()
}

// dispatch hands free units to waiters in priority order.
func (p *Pool) dispatch() {
	for p.inUse < p.capacity && p.waiters.Len() > 0 {
		g := heap.Pop(&p.waiters).(*Grant)
		g.state = grantHeld
		g.grantedAt = p.k.Now()
		p.inUse++
		p.stats.Grants++
		logrus.Debugf("[t=%09.3f] %s: grant #%d (priority %d, waited %.3f)",
			float64(g.grantedAt), p.name, g.seq, g.priority, float64(g.Wait()))
		p.k.Schedule(0, p.name+"/grant", func() { g.onGrant(g) })
	}
}

// waitHeap orders waiting grants by (priority, enqueue time, seq).
type waitHeap []*Grant

func (h waitHeap) Len() int { return len(h) }

func (h waitHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	if h[i].enqueued != h[j].enqueued {
		return h[i].enqueued < h[j].enqueued
	}
	return h[i].seq < h[j].seq
}

func (h waitHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *waitHeap) Push(x any) {
	g := x.(*Grant)
	g.index = len(*h)
	*h = append(*h, g)
}

func (h *waitHeap) Pop() any {
	old := *h
	n := len(old)
	g := old[n-1]
	old[n-1] = nil
	g.index = -1
	*h = old[0 : n-1]
	return g
}
