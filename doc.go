// Package inlet is a broker-to-bytes inbound adapter. It maintains a consuming
// connection to a message broker (RabbitMQ over AMQP 0.9.1, NATS, or an
// in-memory channel hub), polls for messages, normalizes text, binary, and
// structured payloads into raw bytes, and hands each payload to a byte
// listener together with a stable channel identifier.
//
// The adapter is built around a small lifecycle state machine (stopped,
// starting, started, stopping, error). A background supervisor establishes the
// connection, watches for setup failures and asynchronous connection faults,
// and retries on a fixed interval until the adapter is stopped, so a broker
// outage never requires intervention from the host.
//
// # Drivers
//
// Broker access goes through a driver registry. Three drivers ship in-tree:
//   - amqp: RabbitMQ or any AMQP 0.9.1 broker
//   - nats: NATS Core with synchronous subscriptions
//   - channel: in-memory hub for testing and local development
//
// Drivers register themselves via their package Register function; custom
// drivers implement broker.Dialer and register under their own name.
//
// A minimal setup fills a Config, provides a ByteListener (or a ListenerFunc,
// or the Watermill sink from the sink package), creates the Transport, and
// calls Start. Stop tears the connection down and halts the supervisor.
package inlet
