package broker

import (
	"fmt"

	"github.com/sensorfield/sensorsim/sim"
)

// Kind tags the payload carried by a Message.
type Kind int

const (
	// KindPosition carries an emitter's truth position in Value.
	KindPosition Kind = iota + 1
	// KindStatus carries an emitter lifecycle Status in Value.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "THREAT_POSITION"
	case KindStatus:
		return "THREAT_STATUS"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is the lifecycle state reported by a KindStatus message.
type Status int

const (
	StatusLaunched Status = iota + 1
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusLaunched:
		return "launched"
	case StatusTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Message is an immutable report published by an emitter.
// It is a value type: each subscription receives its own copy.
type Message struct {
	OriginID string
	Time     sim.Time
	Kind     Kind
	Value    float64
}

// PositionMessage builds a KindPosition message.
func PositionMessage(origin string, t sim.Time, position float64) Message {
	return Message{OriginID: origin, Time: t, Kind: KindPosition, Value: position}
}

// StatusMessage builds a KindStatus message.
func StatusMessage(origin string, t sim.Time, status Status) Message {
	return Message{OriginID: origin, Time: t, Kind: KindStatus, Value: float64(status)}
}

// Status decodes the lifecycle state of a KindStatus message.
func (m Message) Status() Status {
	return Status(int(m.Value))
}

func (m Message) String() string {
	if m.Kind == KindStatus {
		return fmt.Sprintf("%s %s %s@%.3f", m.OriginID, m.Kind, m.Status(), float64(m.Time))
	}
	return fmt.Sprintf("%s %s %.3f@%.3f", m.OriginID, m.Kind, m.Value, float64(m.Time))
}
