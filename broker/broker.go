// Package broker defines the client-side abstractions inlet uses to talk to a
// message broker. Each driver implementation (amqp, nats, channel) should be in
// its own sub-package and register itself with the driver registry.
package broker

import (
	"context"
	"strings"
	"time"
)

// DestinationType selects the messaging semantics of the consumed destination.
type DestinationType int

const (
	// Queue is point-to-point: each message is delivered to one consumer.
	Queue DestinationType = iota
	// Topic is publish/subscribe: each message is delivered to every consumer.
	Topic
)

// ParseDestinationType parses a destination type name case-insensitively.
// Unrecognized values fall back to Queue.
func ParseDestinationType(s string) DestinationType {
	if strings.EqualFold(s, "topic") {
		return Topic
	}
	return Queue
}

func (t DestinationType) String() string {
	if t == Topic {
		return "topic"
	}
	return "queue"
}

// Destination names the queue or topic a consumer binds to.
type Destination struct {
	Type DestinationType
	Name string
}

// PayloadKind tags the wire encoding of a consumed message.
type PayloadKind int

const (
	// KindUnknown marks messages the adapter does not understand; they are
	// silently ignored.
	KindUnknown PayloadKind = iota
	// KindText carries a textual body.
	KindText
	// KindBytes carries an opaque binary body.
	KindBytes
	// KindObject carries a decoded structured value.
	KindObject
)

func (k PayloadKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Message is the tagged variant a driver hands to the adapter. Exactly one of
// the payload fields is meaningful, selected by Kind.
type Message struct {
	Kind PayloadKind

	// Text is set when Kind is KindText.
	Text string
	// Body is set when Kind is KindBytes.
	Body []byte
	// Object is set when Kind is KindObject.
	Object any
}

// Config provides the connection settings a driver needs. The getter interface
// lets drivers access only the options they care about without depending on
// the full configuration package.
type Config interface {
	// GetProviderURL returns the broker endpoint URL.
	GetProviderURL() string

	// GetUsername and GetPassword return the credential pair. Both empty means
	// anonymous access; the password arrives pre-decrypted.
	GetUsername() string
	GetPassword() string

	// GetDestinationType returns "queue" or "topic" (case-insensitive,
	// anything else is treated as queue).
	GetDestinationType() string

	// GetDestinationName returns the queue or topic name to consume.
	GetDestinationName() string
}

// FaultHandler is invoked by a driver when it detects a connection-level fault
// outside the polling path, for example a transport reset. It may be called
// from any goroutine, at most once per live connection.
type FaultHandler func(error)

// Dialer opens a broker connection. Drivers register a Dialer with the
// registry under their driver name.
type Dialer func(ctx context.Context, cfg Config, onFault FaultHandler) (Connection, error)

// Connection is a live link to the broker.
type Connection interface {
	// OpenSession opens a non-transacted, auto-acknowledging session.
	OpenSession() (Session, error)

	// Close releases the connection. Implementations must tolerate repeated
	// calls and calls after a fault.
	Close() error
}

// Session scopes consumer creation.
type Session interface {
	// CreateConsumer binds a consumer to the destination.
	CreateConsumer(dest Destination) (Consumer, error)

	// Close releases the session and any consumers created from it.
	Close() error
}

// Consumer pulls messages from one destination.
type Consumer interface {
	// Receive waits up to timeout for the next message. It returns (nil, nil)
	// when the wait expires without a message.
	Receive(timeout time.Duration) (*Message, error)

	// Close releases the consumer.
	Close() error
}
