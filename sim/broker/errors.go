package broker

import (
	"errors"
	"fmt"
)

// ErrSubscriptionFull is returned by Publish under OverflowReject when at
// least one subscription on the topic has no free slot.
var ErrSubscriptionFull = errors.New("subscription full")

// NoSubscribersError reports a publish to a topic nobody subscribed to.
// An unconsumed topic is a wiring bug, so the message is not buffered.
type NoSubscribersError struct {
	Topic string
}

func (e *NoSubscribersError) Error() string {
	return fmt.Sprintf("no subscribers on topic %q", e.Topic)
}
