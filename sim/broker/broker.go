// Package broker provides topic-keyed publish/subscribe between simulation
// processes running at different rates. Each subscriber owns a FIFO queue;
// a publish copies the message into every queue registered on the topic.
package broker

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sensorfield/sensorsim/sim"
)

// OverflowPolicy defines what Publish does when a bounded subscription is full.
type OverflowPolicy int

const (
	// OverflowBlock parks the message until the subscriber consumes; the
	// publisher's completion continuation is deferred until then.
	OverflowBlock OverflowPolicy = iota
	// OverflowReject fails the publish with ErrSubscriptionFull and delivers nothing.
	OverflowReject
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowReject:
		return "reject"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy converts a configuration string into an OverflowPolicy.
// The empty string selects OverflowBlock.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "block":
		return OverflowBlock, nil
	case "reject":
		return OverflowReject, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q (want block or reject)", s)
	}
}

// Observer is notified once per successful publish.
type Observer func(topic string, msg Message, fanout int)

// Option configures a Broker.
type Option func(*Broker)

// WithCapacity bounds every subscription created by the broker.
// Zero means unbounded.
func WithCapacity(n int) Option {
	return func(b *Broker) { b.capacity = n }
}

// WithOverflow selects the behavior for publishes into a full subscription.
func WithOverflow(p OverflowPolicy) Option {
	return func(b *Broker) { b.policy = p }
}

// WithObserver registers a callback invoked after each accepted publish.
func WithObserver(o Observer) Option {
	return func(b *Broker) { b.observers = append(b.observers, o) }
}

// Broker is a registry of topics to subscriptions.
// Topics are created on first subscribe and never removed.
type Broker struct {
	k         *sim.Kernel
	topics    map[string][]*Subscription
	capacity  int
	policy    OverflowPolicy
	observers []Observer
	published int64
}

// New creates a broker bound to kernel k.
func New(k *sim.Kernel, opts ...Option) (*Broker, error) {
	b := &Broker{
		k:      k,
		topics: make(map[string][]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.capacity < 0 {
		return nil, fmt.Errorf("subscription capacity must be >= 0, got %d", b.capacity)
	}
	return b, nil
}

// Subscribe registers and returns a new subscription on topic.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := newSubscription(b.k, topic, b.capacity)
	b.topics[topic] = append(b.topics[topic], sub)
	logrus.Debugf("subscribed to %q (%d subscribers)", topic, len(b.topics[topic]))
	return sub
}

// Subscribers returns the number of subscriptions registered on topic.
func (b *Broker) Subscribers(topic string) int {
	return len(b.topics[topic])
}

// Published returns the number of accepted publishes.
func (b *Broker) Published() int64 {
	return b.published
}

// Publish delivers a copy of msg to every subscription on topic. done, if
// non-nil, resumes the publisher once every subscription has accepted the
// message. Delivery is all-or-nothing: on error nothing was enqueued.
func (b *Broker) Publish(topic string, msg Message, done func()) error {
	subs := b.topics[topic]
	if len(subs) == 0 {
		return &NoSubscribersError{Topic: topic}
	}
	if b.policy == OverflowReject {
		for _, sub := range subs {
			if sub.full() {
				return fmt.Errorf("publish %s on %q: %w", msg, topic, ErrSubscriptionFull)
			}
		}
	}

	remaining := len(subs)
	stored := func() {
		remaining--
		if remaining == 0 && done != nil {
			b.k.Schedule(0, topic+"/published", done)
		}
	}
	for _, sub := range subs {
		sub.put(msg, stored)
	}

	b.published++
	for _, o := range b.observers {
		o(topic, msg, len(subs))
	}
	return nil
}
