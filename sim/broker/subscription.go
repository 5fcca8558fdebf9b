package broker

import (
	"fmt"

	"github.com/sensorfield/sensorsim/sim"
)

// Subscription is one consumer's FIFO view of a topic.
// It is owned exclusively by that consumer.
type Subscription struct {
	k        *sim.Kernel
	topic    string
	capacity int // 0 = unbounded
	items    []Message
	getters  []func(Message)
	parked   []parkedPut
	received int64
}

// parkedPut is a message waiting for space in a full subscription.
type parkedPut struct {
	msg    Message
	stored func()
}

func newSubscription(k *sim.Kernel, topic string, capacity int) *Subscription {
	return &Subscription{k: k, topic: topic, capacity: capacity}
}

// Topic returns the topic the subscription is registered on.
func (s *Subscription) Topic() string { return s.topic }

// Len returns the number of buffered messages.
func (s *Subscription) Len() int { return len(s.items) }

// Parked returns the number of publishes blocked on this subscription.
func (s *Subscription) Parked() int { return len(s.parked) }

// Received returns the total number of messages accepted.
func (s *Subscription) Received() int64 { return s.received }

// Next suspends the consumer until a message is available and then resumes
// fn with it. Messages are delivered in publish order.
func (s *Subscription) Next(fn func(Message)) {
	if fn == nil {
		panic(fmt.Sprintf("subscription %q: Next with nil continuation", s.topic))
	}
	if len(s.items) == 0 {
		s.getters = append(s.getters, fn)
		return
	}
	msg := s.items[0]
	s.items = s.items[1:]
	s.admitParked()
	s.k.Schedule(0, s.topic+"/next", func() { fn(msg) })
}

func (s *Subscription) full() bool {
	return s.capacity > 0 && len(s.items) >= s.capacity
}

func (s *Subscription) put(msg Message, stored func()) {
	if len(s.getters) > 0 {
		fn := s.getters[0]
		s.getters = s.getters[1:]
		s.received++
		stored()
		s.k.Schedule(0, s.topic+"/next", func() { fn(msg) })
		return
	}
	if s.full() {
		s.parked = append(s.parked, parkedPut{msg: msg, stored: stored})
		return
	}
	s.items = append(s.items, msg)
	s.received++
	stored()
}

// admitParked moves the oldest blocked publish into the freed slot.
func (s *Subscription) admitParked() {
	if len(s.parked) == 0 || s.full() {
		return
	}
	p := s.parked[0]
	s.parked = s.parked[1:]
	s.items = append(s.items, p.msg)
	s.received++
	p.stored()
}
