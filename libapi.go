package inlet

import (
	runtimepkg "github.com/streamhaus/inlet/internal/runtime"
	configpkg "github.com/streamhaus/inlet/internal/runtime/config"
	errspkg "github.com/streamhaus/inlet/internal/runtime/errors"
	idspkg "github.com/streamhaus/inlet/internal/runtime/ids"
	jsoncodec "github.com/streamhaus/inlet/internal/runtime/jsoncodec"
	loggingpkg "github.com/streamhaus/inlet/internal/runtime/logging"
)

type (
	Config                = configpkg.Config
	Transport             = runtimepkg.Transport
	TransportDependencies = runtimepkg.TransportDependencies
	Lifecycle             = runtimepkg.Lifecycle
	RunningState          = runtimepkg.RunningState
	Metrics               = runtimepkg.Metrics

	ByteListener = runtimepkg.ByteListener
	ListenerFunc = runtimepkg.ListenerFunc

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	SetupError            = errspkg.SetupError
	ConnectionLostError   = errspkg.ConnectionLostError
	ConfigValidationError = errspkg.ConfigValidationError
)

// Lifecycle states reported by Transport.State.
const (
	Stopped  = runtimepkg.Stopped
	Starting = runtimepkg.Starting
	Started  = runtimepkg.Started
	Stopping = runtimepkg.Stopping
	Error    = runtimepkg.Error
)

// Defaults applied by Config when the corresponding field is zero.
const (
	DefaultPollTimeout   = configpkg.DefaultPollTimeout
	DefaultRetryInterval = configpkg.DefaultRetryInterval
)

var (
	NewTransport   = runtimepkg.NewTransport
	NewMetrics     = runtimepkg.NewMetrics
	ValidateConfig = configpkg.ValidateConfig

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewNopLogger         = loggingpkg.NewNopLogger

	// Channel identifier scheme, shared with the drivers.
	NewULID = idspkg.NewULID

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode

	ErrProviderURLRequired     = errspkg.ErrProviderURLRequired
	ErrDestinationNameRequired = errspkg.ErrDestinationNameRequired
	ErrDriverRequired          = errspkg.ErrDriverRequired
	ErrListenerRequired        = errspkg.ErrListenerRequired
	ErrCredentialsIncomplete   = errspkg.ErrCredentialsIncomplete
	ErrDecodeFailed            = errspkg.ErrDecodeFailed
)

// NewEntryServiceLogger wraps an entry-style logger (for example a
// logrus.Entry) so it can be used as the adapter logger.
func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}
