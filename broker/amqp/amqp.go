// Package amqp provides an AMQP 0.9.1 broker driver for inlet, backed by
// RabbitMQ or any compatible broker.
package amqp

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/streamhaus/inlet/broker"
	"github.com/streamhaus/inlet/internal/runtime/ids"
)

// DriverName is the name used to register this driver.
const DriverName = "amqp"

// ErrDeliveryChannelClosed is returned by Receive after the underlying
// delivery channel was closed by the client library.
var ErrDeliveryChannelClosed = errors.New("amqp: delivery channel closed")

// DialFactory allows overriding the connection creation for testing.
var DialFactory = func(url string, cfg amqp091.Config) (*amqp091.Connection, error) {
	return amqp091.DialConfig(url, cfg)
}

// Register registers the AMQP driver with the default registry.
func Register() {
	broker.Register(DriverName, Dial)
}

// Dial opens an AMQP connection. Credentials from cfg, when present as a
// pair, take precedence over any embedded in the provider URL. A connection
// fault reported by the client library is forwarded to onFault once.
func Dial(ctx context.Context, cfg broker.Config, onFault broker.FaultHandler) (broker.Connection, error) {
	amqpCfg := amqp091.Config{Properties: amqp091.NewConnectionProperties()}
	amqpCfg.Properties.SetClientConnectionName("inlet")

	if user, pass := cfg.GetUsername(), cfg.GetPassword(); user != "" && pass != "" {
		amqpCfg.SASL = []amqp091.Authentication{&amqp091.PlainAuth{Username: user, Password: pass}}
	}

	conn, err := DialFactory(cfg.GetProviderURL(), amqpCfg)
	if err != nil {
		return nil, err
	}

	if onFault != nil {
		closes := conn.NotifyClose(make(chan *amqp091.Error, 1))
		go func() {
			if amqpErr, ok := <-closes; ok && amqpErr != nil {
				onFault(amqpErr)
			}
		}()
	}

	return &Conn{conn: conn}, nil
}

// Conn wraps an AMQP connection.
type Conn struct {
	conn *amqp091.Connection
}

// OpenSession opens an AMQP channel. Deliveries are consumed in auto-ack mode,
// matching the adapter's non-transacted auto-acknowledging session contract.
func (c *Conn) OpenSession() (broker.Session, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return &session{ch: ch}, nil
}

// Close releases the connection. Safe to call repeatedly.
func (c *Conn) Close() error {
	if c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

type session struct {
	ch *amqp091.Channel
}

// CreateConsumer binds a consumer to the destination. A queue destination maps
// to a durable queue with competing consumers; a topic destination maps to a
// fanout exchange with an exclusive, server-named queue per consumer.
func (s *session) CreateConsumer(dest broker.Destination) (broker.Consumer, error) {
	queueName := dest.Name

	if dest.Type == broker.Topic {
		if err := s.ch.ExchangeDeclare(dest.Name, "fanout", true, false, false, false, nil); err != nil {
			return nil, err
		}
		q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return nil, err
		}
		if err := s.ch.QueueBind(q.Name, "", dest.Name, false, nil); err != nil {
			return nil, err
		}
		queueName = q.Name
	} else {
		if _, err := s.ch.QueueDeclare(dest.Name, true, false, false, false, nil); err != nil {
			return nil, err
		}
	}

	tag := "inlet-" + ids.NewULID()
	deliveries, err := s.ch.Consume(queueName, tag, true, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	return &consumer{ch: s.ch, tag: tag, deliveries: deliveries}, nil
}

func (s *session) Close() error {
	return s.ch.Close()
}

type consumer struct {
	ch         *amqp091.Channel
	tag        string
	deliveries <-chan amqp091.Delivery

	mu     sync.Mutex
	closed bool
}

func (c *consumer) Receive(timeout time.Duration) (*broker.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case delivery, ok := <-c.deliveries:
		if !ok {
			// The connection-level NotifyClose callback, not this error, is
			// authoritative for the lifecycle transition.
			return nil, ErrDeliveryChannelClosed
		}
		msg := broker.FromWire(delivery.ContentType, delivery.Body)
		return &msg, nil
	case <-timer.C:
		return nil, nil
	}
}

func (c *consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ch.Cancel(c.tag, false)
}
