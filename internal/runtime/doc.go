/*
Package runtime implements the core of the inlet inbound adapter.

# Architecture Overview

The adapter is a small state machine around one consuming broker connection.
A background supervisor owns connection setup and recovery; a consume loop
polls the live consumer and pushes normalized payloads to the configured byte
listener.

# Package Structure

## Transport (transport.go)

The Transport struct is the central orchestrator. It wires together:
  - the broker driver registry for dialing connections
  - the supervisor goroutine and its fixed retry interval
  - the consume loop and payload dispatch
  - Prometheus metrics and OpenTelemetry spans per consumed message

## Lifecycle (state.go)

RunningState models the adapter status (stopped, starting, started,
stopping, error). Transitions are serialized behind the transport lock;
reads are lock-free.

## Normalization (normalize.go)

normalizePayload turns the tagged broker message variants (text, bytes,
object) into the raw byte slice handed to the listener. Structured payloads
are serialized to protobuf binary or JSON.

## Metrics (metrics.go)

Prometheus counters for forwarded messages, forwarded bytes, drops by
reason, setup failures, connection faults, and poll errors.

# Sub-packages

  - config/: adapter configuration with validation and credential redaction
  - errors/: sentinel errors and error types
  - ids/: ULID generation for channel identifiers
  - jsoncodec/: JSON marshaling utilities
  - logging/: logger interface and adapters

# Usage Example

	cfg := &inlet.Config{
		Driver:          "amqp",
		ProviderURL:     "amqp://localhost:5672/",
		DestinationType: "queue",
		DestinationName: "sensor.readings",
	}

	tr, err := inlet.NewTransport(cfg, logger, listener, inlet.TransportDependencies{})
	if err != nil {
		return err
	}
	tr.Start()
	defer tr.Stop()
*/
package runtime
