// Package errors defines the failure taxonomy of the inbound adapter. Only
// setup-time and asynchronous connection failures are promoted to the
// adapter-visible lifecycle state; message-level and release-level failures
// stay local to the consume loop and cleanup paths.
package errors

import sterrors "errors"

var (
	ErrProviderURLRequired     = sterrors.New("inlet: provider URL is required")
	ErrDestinationNameRequired = sterrors.New("inlet: destination name is required")
	ErrDriverRequired          = sterrors.New("inlet: broker driver is required")
	ErrListenerRequired        = sterrors.New("inlet: byte listener is required")
	ErrCredentialsIncomplete   = sterrors.New("inlet: username and password must be configured together")

	// ErrDecodeFailed marks a message whose payload could not be decoded. The
	// message is dropped and the consume loop continues.
	ErrDecodeFailed = sterrors.New("inlet: message payload could not be decoded")
)

// SetupError reports that creating the connection, session, or consumer
// failed. The supervisor retries setup on its next tick.
type SetupError struct {
	Err error
}

func (e SetupError) Error() string {
	return "inlet: connection setup failed: " + e.Err.Error()
}

func (e SetupError) Unwrap() error {
	return e.Err
}

// NewSetupError wraps err as a SetupError. Returns nil when err is nil.
func NewSetupError(err error) error {
	if err == nil {
		return nil
	}
	return SetupError{Err: err}
}

// ConnectionLostError reports a broker-detected fault after a successful
// setup. It forces cleanup and the Error state.
type ConnectionLostError struct {
	Err error
}

func (e ConnectionLostError) Error() string {
	return "inlet: connection lost: " + e.Err.Error()
}

func (e ConnectionLostError) Unwrap() error {
	return e.Err
}

// ConfigValidationError wraps configuration validation failures so callers can
// detect them with errors.As.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "inlet: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err as a ConfigValidationError. Returns nil
// when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
