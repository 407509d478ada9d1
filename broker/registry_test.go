package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct{}

func (stubConfig) GetProviderURL() string     { return "stub://localhost" }
func (stubConfig) GetUsername() string        { return "" }
func (stubConfig) GetPassword() string        { return "" }
func (stubConfig) GetDestinationType() string { return "queue" }
func (stubConfig) GetDestinationName() string { return "events" }

type stubConn struct{}

func (stubConn) OpenSession() (Session, error) { return nil, errors.New("not implemented") }
func (stubConn) Close() error                  { return nil }

func stubDialer(ctx context.Context, cfg Config, onFault FaultHandler) (Connection, error) {
	return stubConn{}, nil
}

func TestRegistry_RegisterAndDial(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubDialer)

	assert.True(t, r.Has("stub"))
	assert.Equal(t, []string{"stub"}, r.Names())

	conn, err := r.Dial(context.Background(), "stub", stubConfig{}, nil)
	require.NoError(t, err)
	require.NotNil(t, conn)
}

func TestRegistry_DialUnknownDriver(t *testing.T) {
	r := NewRegistry()

	conn, err := r.Dial(context.Background(), "missing", stubConfig{}, nil)
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.Contains(t, err.Error(), "unknown broker driver")
}

func TestRegistry_DialNilConfig(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubDialer)

	conn, err := r.Dial(context.Background(), "stub", nil, nil)
	require.Error(t, err)
	assert.Nil(t, conn)
}

func TestRegistry_DialerReceivesArguments(t *testing.T) {
	r := NewRegistry()

	var gotURL string
	var gotFault FaultHandler
	r.Register("capture", func(ctx context.Context, cfg Config, onFault FaultHandler) (Connection, error) {
		gotURL = cfg.GetProviderURL()
		gotFault = onFault
		return stubConn{}, nil
	})

	faulted := make(chan error, 1)
	_, err := r.Dial(context.Background(), "capture", stubConfig{}, func(err error) { faulted <- err })
	require.NoError(t, err)
	assert.Equal(t, "stub://localhost", gotURL)

	require.NotNil(t, gotFault)
	gotFault(errors.New("link reset"))
	select {
	case err := <-faulted:
		assert.EqualError(t, err, "link reset")
	case <-time.After(time.Second):
		t.Fatal("fault handler was not delivered")
	}
}

func TestDefaultRegistryHelpers(t *testing.T) {
	Register("default-stub", stubDialer)

	assert.True(t, DefaultRegistry.Has("default-stub"))

	conn, err := Dial(context.Background(), "default-stub", stubConfig{}, nil)
	require.NoError(t, err)
	require.NotNil(t, conn)
}
