package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhaus/inlet/broker"
)

type natsConfig struct {
	username string
	password string
}

func (c natsConfig) GetProviderURL() string     { return "nats://broker.local:4222" }
func (c natsConfig) GetUsername() string        { return c.username }
func (c natsConfig) GetPassword() string        { return c.password }
func (c natsConfig) GetDestinationType() string { return "topic" }
func (c natsConfig) GetDestinationName() string { return "updates" }

func captureOptions(t *testing.T) *[]nats.Option {
	t.Helper()

	var captured []nats.Option
	orig := ConnectFactory
	ConnectFactory = func(url string, opts ...nats.Option) (*nats.Conn, error) {
		captured = append(captured, opts...)
		return nil, errors.New("connect intercepted")
	}
	t.Cleanup(func() { ConnectFactory = orig })
	return &captured
}

func applyOptions(t *testing.T, opts []nats.Option) nats.Options {
	t.Helper()

	o := nats.GetDefaultOptions()
	for _, opt := range opts {
		require.NoError(t, opt(&o))
	}
	return o
}

func TestDial_DisablesClientReconnect(t *testing.T) {
	captured := captureOptions(t)

	_, err := Dial(context.Background(), natsConfig{}, nil)
	require.Error(t, err)

	o := applyOptions(t, *captured)
	assert.Equal(t, "inlet", o.Name)
	assert.False(t, o.AllowReconnect)
}

func TestDial_AppliesCredentialPair(t *testing.T) {
	captured := captureOptions(t)

	_, err := Dial(context.Background(), natsConfig{username: "svc", password: "secret"}, nil)
	require.Error(t, err)

	o := applyOptions(t, *captured)
	assert.Equal(t, "svc", o.User)
	assert.Equal(t, "secret", o.Password)
}

func TestDial_AnonymousLeavesCredentialsEmpty(t *testing.T) {
	captured := captureOptions(t)

	_, err := Dial(context.Background(), natsConfig{}, nil)
	require.Error(t, err)

	o := applyOptions(t, *captured)
	assert.Empty(t, o.User)
	assert.Empty(t, o.Password)
}

func TestDial_FaultHandlerFiresOnce(t *testing.T) {
	captured := captureOptions(t)

	faults := make(chan error, 2)
	_, err := Dial(context.Background(), natsConfig{}, func(err error) { faults <- err })
	require.Error(t, err)

	o := applyOptions(t, *captured)
	require.NotNil(t, o.DisconnectedErrCB)

	cause := errors.New("server went away")
	o.DisconnectedErrCB(nil, cause)
	o.DisconnectedErrCB(nil, cause)

	assert.Len(t, faults, 1)
	assert.ErrorIs(t, <-faults, cause)
}

func TestDial_FaultHandlerDefaultsNilError(t *testing.T) {
	captured := captureOptions(t)

	faults := make(chan error, 1)
	_, err := Dial(context.Background(), natsConfig{}, func(err error) { faults <- err })
	require.Error(t, err)

	o := applyOptions(t, *captured)
	o.DisconnectedErrCB(nil, nil)

	assert.ErrorIs(t, <-faults, nats.ErrConnectionClosed)
}

func TestDial_PropagatesConnectError(t *testing.T) {
	cause := errors.New("no servers available")
	orig := ConnectFactory
	ConnectFactory = func(string, ...nats.Option) (*nats.Conn, error) { return nil, cause }
	t.Cleanup(func() { ConnectFactory = orig })

	conn, err := Dial(context.Background(), natsConfig{}, nil)
	require.ErrorIs(t, err, cause)
	assert.Nil(t, conn)
}

func TestRegister(t *testing.T) {
	Register()
	assert.True(t, broker.DefaultRegistry.Has(DriverName))
}
