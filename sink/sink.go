// Package sink contains byte listener implementations that move adapter
// output onward. The watermill sink bridges inlet into a Watermill pipeline so
// consumed payloads can be routed with the rest of an event-driven service.
package sink

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/streamhaus/inlet/internal/runtime/logging"
)

// MetadataChannelID is the message metadata key carrying the adapter channel
// identifier on published messages.
const MetadataChannelID = "inlet_channel_id"

// WatermillSink forwards received payloads to a Watermill publisher. It
// implements the adapter's byte listener contract: Receive never blocks the
// consume loop on anything but the publisher itself and never panics back
// into it.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
	logger    logging.ServiceLogger
}

// NewWatermillSink creates a sink that publishes every payload to topic.
// A nil logger discards publish failures silently.
func NewWatermillSink(publisher message.Publisher, topic string, logger logging.ServiceLogger) *WatermillSink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Receive publishes one payload as a Watermill message. The payload slice is
// owned by the caller's contract (the adapter hands over a private copy), so
// it is used directly without another copy. Publish failures are logged and
// dropped; the adapter's consume loop must not stall on a slow downstream.
func (s *WatermillSink) Receive(payload []byte, channelID string) {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataChannelID, channelID)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		s.logger.Error("publishing received payload failed", err, logging.LogFields{
			"topic":      s.topic,
			"channel_id": channelID,
		})
	}
}
