package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/streamhaus/inlet/broker"
	configpkg "github.com/streamhaus/inlet/internal/runtime/config"
	errspkg "github.com/streamhaus/inlet/internal/runtime/errors"
	"github.com/streamhaus/inlet/internal/runtime/ids"
	loggingpkg "github.com/streamhaus/inlet/internal/runtime/logging"
)

const tracerName = "github.com/streamhaus/inlet"

// Lifecycle is the capability surface a host uses to control an inbound
// adapter.
type Lifecycle interface {
	Start()
	Stop()
	State() RunningState
}

// TransportDependencies holds the optional collaborators of a Transport.
// Leave fields nil to use the defaults.
type TransportDependencies struct {
	// Registry resolves the broker driver. Defaults to broker.DefaultRegistry.
	Registry *broker.Registry

	// Metrics receives adapter counters. Nil disables metric recording.
	Metrics *Metrics

	// Tracer creates a span per consumed message. Defaults to the global
	// OpenTelemetry tracer, which is a no-op unless the host installs a
	// provider.
	Tracer trace.Tracer
}

// Transport is a supervised inbound adapter: it owns a broker connection,
// consumes messages from one destination, normalizes their payloads to raw
// bytes, and forwards them to a ByteListener tagged with a channel identifier
// that stays stable across reconnects.
//
// All lifecycle transitions are serialized behind one coarse lock shared by
// Start, Stop, setup, and cleanup. The consume loop only reads the state,
// which is an acceptable race: a stale read costs at most one extra poll.
type Transport struct {
	conf     *configpkg.Config
	logger   loggingpkg.ServiceLogger
	listener ByteListener
	registry *broker.Registry
	metrics  *Metrics
	tracer   trace.Tracer

	channelID string
	dest      broker.Destination

	mu    sync.Mutex
	state atomic.Int32

	// generation invalidates supervisors: a supervisor only acts while it
	// holds the current generation. Stop bumps it, so a superseded supervisor
	// exits on its next tick without touching the state machine.
	generation atomic.Uint64
	// supGen is the generation of the supervisor the flag below refers to.
	supGen      uint64
	supervising bool

	// epoch identifies one set of connection resources. The consume loop and
	// the fault callback capture it at setup time and go inert once it moves.
	epoch atomic.Uint64

	conn broker.Connection
	sess broker.Session
	cons broker.Consumer

	errorMsg atomic.Value // string
}

// NewTransport validates the configuration and constructs a stopped adapter.
// The channel identifier is minted here, once, for the adapter's lifetime.
func NewTransport(conf *configpkg.Config, log loggingpkg.ServiceLogger, listener ByteListener, deps TransportDependencies) (*Transport, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if listener == nil {
		return nil, errspkg.ErrListenerRequired
	}
	if log == nil {
		log = loggingpkg.NewNopLogger()
	}

	registry := deps.Registry
	if registry == nil {
		registry = broker.DefaultRegistry
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	t := &Transport{
		conf:      conf,
		listener:  listener,
		registry:  registry,
		metrics:   deps.Metrics,
		tracer:    tracer,
		channelID: ids.NewULID(),
		dest: broker.Destination{
			Type: broker.ParseDestinationType(conf.DestinationType),
			Name: conf.DestinationName,
		},
	}
	t.logger = log.With(loggingpkg.LogFields{
		"channel_id":  t.channelID,
		"driver":      conf.Driver,
		"destination": t.dest.Name,
	})
	t.errorMsg.Store("")

	t.logger.Info("inbound transport created", loggingpkg.LogFields{
		"destination_type": t.dest.Type.String(),
		"config":           conf,
	})
	return t, nil
}

// ChannelID returns the stable identifier tagging this adapter's output.
func (t *Transport) ChannelID() string {
	return t.channelID
}

// State returns the current lifecycle state. Safe from any goroutine.
func (t *Transport) State() RunningState {
	return RunningState(t.state.Load())
}

// Err returns the advisory description of the most recent failure, or the
// empty string. It is overwritten on each failure and cleared once the
// adapter is running again.
func (t *Transport) Err() string {
	return t.errorMsg.Load().(string)
}

func (t *Transport) setStateLocked(s RunningState) {
	t.state.Store(int32(s))
}

// Start ensures a supervisor is driving the adapter towards Started. It is a
// no-op while the adapter is Starting or Started, and while a live supervisor
// already exists.
func (t *Transport) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.State() {
	case Starting, Started:
		return
	}
	if t.supervising {
		return
	}

	gen := t.generation.Add(1)
	t.supGen = gen
	t.supervising = true
	t.logger.Debug("supervisor starting", loggingpkg.LogFields{"generation": gen})
	go t.supervise(gen)
}

// Stop tears the adapter down: it invalidates the supervisor, releases the
// connection resources, and settles in Stopped. Calling Stop on a stopped
// adapter is a no-op.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() == Stopped {
		return
	}

	// Invalidate the supervisor; it exits cooperatively on its next tick.
	t.generation.Add(1)
	t.supervising = false

	t.setStateLocked(Stopping)
	t.cleanupLocked()
	t.setStateLocked(Stopped)
	t.logger.Info("inbound transport stopped", nil)
}

// supervise retries setup whenever the adapter is Stopped or Error, once per
// tick, indefinitely and without backoff. Broker outages therefore surface as
// Error and heal on a later tick without operator intervention.
func (t *Transport) supervise(gen uint64) {
	interval := t.conf.EffectiveRetryInterval()
	for t.superviseTick(gen) {
		time.Sleep(interval)
	}
}

func (t *Transport) superviseTick(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.generation.Load() != gen {
		if t.supGen == gen {
			t.supervising = false
		}
		t.logger.Debug("supervisor superseded", loggingpkg.LogFields{"generation": gen})
		return false
	}

	switch t.State() {
	case Stopped, Error:
		t.setStateLocked(Starting)
		if err := t.setupLocked(); err != nil {
			t.errorMsg.Store(err.Error())
			t.setStateLocked(Error)
			t.metrics.RecordSetupFailure()
			t.logger.Error("connection setup failed", err, nil)
			return true
		}
		t.setStateLocked(Started)
		t.errorMsg.Store("")
		go t.consumeLoop(t.epoch.Load(), t.cons)
		t.logger.Info("inbound transport started", nil)

	case Stopping:
		// Teardown in progress; leave it alone this tick.

	default:
		// Starting or Started: clear a stale advisory error.
		t.errorMsg.Store("")
	}
	return true
}

// setupLocked builds the connection resources as an all-or-nothing triple.
// On any failure it cleans up whatever was created and returns a SetupError,
// so resources are never left partially allocated. Caller holds t.mu.
func (t *Transport) setupLocked() error {
	epoch := t.epoch.Add(1)
	onFault := func(err error) { t.handleFault(epoch, err) }

	conn, err := t.registry.Dial(context.Background(), t.conf.Driver, t.conf, onFault)
	if err != nil {
		t.cleanupLocked()
		return errspkg.NewSetupError(err)
	}
	t.conn = conn

	sess, err := conn.OpenSession()
	if err != nil {
		t.cleanupLocked()
		return errspkg.NewSetupError(err)
	}
	t.sess = sess

	cons, err := sess.CreateConsumer(t.dest)
	if err != nil {
		t.cleanupLocked()
		return errspkg.NewSetupError(err)
	}
	t.cons = cons

	return nil
}

// cleanupLocked releases consumer, session, then connection, best-effort:
// a release failure is logged and never blocks releasing the rest. Idempotent
// and safe when resources are already nil. Caller holds t.mu.
func (t *Transport) cleanupLocked() {
	if t.cons != nil {
		if err := t.cons.Close(); err != nil {
			t.logger.Debug("consumer release failed", loggingpkg.LogFields{"error": err})
		}
		t.cons = nil
	}
	if t.sess != nil {
		if err := t.sess.Close(); err != nil {
			t.logger.Debug("session release failed", loggingpkg.LogFields{"error": err})
		}
		t.sess = nil
	}
	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			t.logger.Debug("connection release failed", loggingpkg.LogFields{"error": err})
		}
		t.conn = nil
	}
}

// handleFault is the asynchronous failure callback a driver invokes on
// connection-level faults. It is the sole trigger for an in-flight
// Started -> Error transition; faults from superseded connections are ignored.
func (t *Transport) handleFault(epoch uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.epoch.Load() != epoch || t.State() != Started {
		return
	}

	lost := errspkg.ConnectionLostError{Err: err}
	t.setStateLocked(Stopping)
	t.cleanupLocked()
	t.setStateLocked(Error)
	t.errorMsg.Store(lost.Error())
	t.metrics.RecordFault()
	t.logger.Error("connection lost", lost, nil)
}

// consumeLoop drains the consumer while the adapter is Started and the
// resources it was launched for are still current. It performs no cleanup
// itself; teardown belongs to Stop and the fault callback.
func (t *Transport) consumeLoop(epoch uint64, cons broker.Consumer) {
	timeout := t.conf.EffectivePollTimeout()
	t.logger.Debug("consume loop started", nil)

	for t.State() == Started && t.epoch.Load() == epoch {
		msg, err := cons.Receive(timeout)
		if err != nil {
			// Transient by contract: the fault callback, not a polling error,
			// decides whether the connection is gone. Pause one poll interval
			// so a fast-failing client cannot spin the loop.
			t.metrics.RecordPollError()
			t.logger.Warn("poll error", loggingpkg.LogFields{"error": err})
			time.Sleep(timeout)
			continue
		}
		if msg == nil {
			continue
		}
		t.dispatch(msg)
	}

	t.logger.Debug("consume loop stopped", nil)
}

// dispatch normalizes one message and forwards the result to the listener.
func (t *Transport) dispatch(msg *broker.Message) {
	_, span := t.tracer.Start(context.Background(), "inlet.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", t.dest.Name),
			attribute.String("inlet.payload.kind", msg.Kind.String()),
			attribute.String("inlet.channel.id", t.channelID),
		),
	)
	defer span.End()

	payload, err := normalizePayload(msg)
	if err != nil {
		span.RecordError(err)
		reason := DropReasonSerialize
		if errors.Is(err, errspkg.ErrDecodeFailed) {
			reason = DropReasonDecode
		}
		t.metrics.RecordDropped(reason)
		t.logger.Error("message dropped", err, loggingpkg.LogFields{"kind": msg.Kind.String()})
		return
	}
	if payload == nil && msg.Kind == broker.KindUnknown {
		t.metrics.RecordDropped(DropReasonUnknownKind)
		return
	}

	t.forward(payload, msg.Kind)
}

// forward hands a copy of the payload to the listener. Empty input is a
// no-op. The copy decouples the normalizer's buffers from whatever the sink
// does with the bytes afterwards.
func (t *Transport) forward(payload []byte, kind broker.PayloadKind) {
	if len(payload) == 0 {
		return
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	t.listener.Receive(out, t.channelID)
	t.metrics.RecordForwarded(kind.String(), len(out))
}
