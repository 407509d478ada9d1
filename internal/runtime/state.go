package runtime

// RunningState is the adapter-wide lifecycle status. Exactly one value holds
// at any instant; all transitions are serialized behind the transport's lock.
type RunningState int32

const (
	// Stopped means no connection resources exist and no consume loop runs.
	Stopped RunningState = iota
	// Starting means the supervisor is building the connection resources.
	Starting
	// Started means a live consumer exists and the consume loop is running.
	Started
	// Stopping means teardown is in progress.
	Stopping
	// Error means setup failed or the connection was lost; resources are
	// released and the supervisor will retry on its next tick.
	Error
)

func (s RunningState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
