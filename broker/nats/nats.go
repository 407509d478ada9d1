// Package nats provides a NATS Core broker driver for inlet.
package nats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/streamhaus/inlet/broker"
)

// DriverName is the name used to register this driver.
const DriverName = "nats"

// QueueGroup is the queue group name used for queue destinations so that
// multiple adapters consuming the same queue compete for messages.
const QueueGroup = "inlet"

// ConnectFactory allows overriding the connection creation for testing.
var ConnectFactory = func(url string, opts ...nats.Option) (*nats.Conn, error) {
	return nats.Connect(url, opts...)
}

// Register registers the NATS driver with the default registry.
func Register() {
	broker.Register(DriverName, Dial)
}

// Dial opens a NATS connection. Client-side reconnection is disabled: the
// adapter's supervisor owns connection recovery, and a silent client-side
// reconnect would hide faults from it.
func Dial(ctx context.Context, cfg broker.Config, onFault broker.FaultHandler) (broker.Connection, error) {
	opts := []nats.Option{
		nats.Name("inlet"),
		nats.NoReconnect(),
	}

	if user, pass := cfg.GetUsername(), cfg.GetPassword(); user != "" && pass != "" {
		opts = append(opts, nats.UserInfo(user, pass))
	}

	if onFault != nil {
		var once sync.Once
		opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err == nil {
				err = nats.ErrConnectionClosed
			}
			once.Do(func() { onFault(err) })
		}))
	}

	nc, err := ConnectFactory(cfg.GetProviderURL(), opts...)
	if err != nil {
		return nil, err
	}

	return &Conn{nc: nc}, nil
}

// Conn wraps a NATS connection.
type Conn struct {
	nc *nats.Conn
}

// OpenSession opens a session. NATS has no session concept; the session scopes
// the subscriptions created from it so they are released together.
func (c *Conn) OpenSession() (broker.Session, error) {
	if c.nc.IsClosed() {
		return nil, nats.ErrConnectionClosed
	}
	return &session{nc: c.nc}, nil
}

// Close releases the connection. Safe to call repeatedly.
func (c *Conn) Close() error {
	if !c.nc.IsClosed() {
		c.nc.Close()
	}
	return nil
}

type session struct {
	nc *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

// CreateConsumer binds a synchronous subscription to the destination. A topic
// destination subscribes directly; a queue destination joins the shared queue
// group so consumers compete for messages.
func (s *session) CreateConsumer(dest broker.Destination) (broker.Consumer, error) {
	var (
		sub *nats.Subscription
		err error
	)
	if dest.Type == broker.Topic {
		sub, err = s.nc.SubscribeSync(dest.Name)
	} else {
		sub, err = s.nc.QueueSubscribeSync(dest.Name, QueueGroup)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return &consumer{sub: sub}, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if sub.IsValid() {
			errs = append(errs, sub.Unsubscribe())
		}
	}
	return errors.Join(errs...)
}

type consumer struct {
	sub *nats.Subscription
}

func (c *consumer) Receive(timeout time.Duration) (*broker.Message, error) {
	m, err := c.sub.NextMsg(timeout)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}

	msg := broker.FromWire(m.Header.Get("Content-Type"), m.Data)
	return &msg, nil
}

func (c *consumer) Close() error {
	if !c.sub.IsValid() {
		return nil
	}
	return c.sub.Unsubscribe()
}
