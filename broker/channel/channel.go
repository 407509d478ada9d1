// Package channel provides an in-memory broker driver for inlet. It is useful
// for testing and local development: messages are pushed into a Hub and
// connection faults can be injected to exercise the adapter's supervisor.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/streamhaus/inlet/broker"
)

// DriverName is the name used to register this driver.
const DriverName = "channel"

// DefaultHub receives messages for connections dialed through the registered
// driver. Tests that need isolation should dial their own Hub directly.
var DefaultHub = NewHub()

// ErrConnectionClosed is returned by Receive after the connection was severed.
var ErrConnectionClosed = errors.New("channel: connection closed")

const deliveryBuffer = 64

// Register registers the channel driver with the default registry.
func Register() {
	broker.Register(DriverName, DefaultHub.Dial)
}

// Hub is an in-memory stand-in for a broker. Queue destinations give
// point-to-point delivery (consumers share one buffered channel); topic
// destinations fan out to every bound consumer.
type Hub struct {
	mu     sync.Mutex
	queues map[string]chan broker.Message
	topics map[string][]chan broker.Message
	conns  map[*Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		queues: make(map[string]chan broker.Message),
		topics: make(map[string][]chan broker.Message),
		conns:  make(map[*Conn]struct{}),
	}
}

// Dial opens an in-memory connection bound to this hub. It satisfies
// broker.Dialer.
func (h *Hub) Dial(ctx context.Context, cfg broker.Config, onFault broker.FaultHandler) (broker.Connection, error) {
	c := &Conn{hub: h, onFault: onFault}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	return c, nil
}

// Publish delivers a message to a destination. Messages published to a queue
// with no consumer are buffered; messages published to a topic with no
// subscribers are dropped, matching broker semantics.
func (h *Hub) Publish(dest broker.Destination, msg broker.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if dest.Type == broker.Topic {
		for _, ch := range h.topics[dest.Name] {
			select {
			case ch <- msg:
			default:
			}
		}
		return
	}

	ch, ok := h.queues[dest.Name]
	if !ok {
		ch = make(chan broker.Message, deliveryBuffer)
		h.queues[dest.Name] = ch
	}
	select {
	case ch <- msg:
	default:
	}
}

// Fail severs every live connection and reports err through each connection's
// fault handler, simulating a broker-side transport reset.
func (h *Hub) Fail(err error) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*Conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.sever(err)
	}
}

// ConnCount reports the number of live connections, for test assertions.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) subscribeTopic(name string) chan broker.Message {
	ch := make(chan broker.Message, deliveryBuffer)
	h.mu.Lock()
	h.topics[name] = append(h.topics[name], ch)
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribeTopic(name string, ch chan broker.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[name]
	for i, sub := range subs {
		if sub == ch {
			h.topics[name] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Conn is an in-memory broker connection.
type Conn struct {
	hub     *Hub
	onFault broker.FaultHandler

	mu     sync.Mutex
	closed bool
}

// OpenSession opens a session on the connection.
func (c *Conn) OpenSession() (broker.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	return &session{conn: c}, nil
}

// Close releases the connection. Safe to call repeatedly.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.hub.drop(c)
	return nil
}

func (c *Conn) sever(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	onFault := c.onFault
	c.mu.Unlock()

	if onFault != nil {
		onFault(err)
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type session struct {
	conn *Conn
}

func (s *session) CreateConsumer(dest broker.Destination) (broker.Consumer, error) {
	if s.conn.isClosed() {
		return nil, ErrConnectionClosed
	}

	hub := s.conn.hub
	cons := &consumer{conn: s.conn, dest: dest}
	if dest.Type == broker.Topic {
		cons.ch = hub.subscribeTopic(dest.Name)
	} else {
		hub.mu.Lock()
		ch, ok := hub.queues[dest.Name]
		if !ok {
			ch = make(chan broker.Message, deliveryBuffer)
			hub.queues[dest.Name] = ch
		}
		hub.mu.Unlock()
		cons.ch = ch
	}
	return cons, nil
}

func (s *session) Close() error {
	return nil
}

type consumer struct {
	conn *Conn
	dest broker.Destination
	ch   chan broker.Message

	mu     sync.Mutex
	closed bool
}

func (c *consumer) Receive(timeout time.Duration) (*broker.Message, error) {
	if c.conn.isClosed() {
		return nil, ErrConnectionClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-c.ch:
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

	if c.dest.Type == broker.Topic {
		c.conn.hub.unsubscribeTopic(c.dest.Name, c.ch)
	}
	return nil
}
