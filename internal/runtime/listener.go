package runtime

// ByteListener is the downstream sink an adapter feeds. Receive is called with
// a fresh copy of each normalized payload and the adapter's stable channel
// identifier; implementations own the slice and may retain it.
type ByteListener interface {
	Receive(payload []byte, channelID string)
}

// ListenerFunc adapts a plain function to the ByteListener interface.
type ListenerFunc func(payload []byte, channelID string)

// Receive calls f(payload, channelID).
func (f ListenerFunc) Receive(payload []byte, channelID string) {
	f(payload, channelID)
}
