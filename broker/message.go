package broker

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Content types shared by the drivers when classifying wire payloads.
const (
	ContentTypeText  = "text/plain"
	ContentTypeJSON  = "application/json"
	ContentTypeBytes = "application/octet-stream"
)

// FromWire classifies a raw broker payload into a tagged Message using its
// declared content type. Textual payloads become KindText, JSON payloads are
// decoded into KindObject, and everything else is passed through as KindBytes.
// A JSON body that fails to decode degrades to KindBytes so no payload is lost
// on a misdeclared content type.
func FromWire(contentType string, body []byte) Message {
	mediaType := contentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return Message{Kind: KindText, Text: string(body)}
	case mediaType == ContentTypeJSON:
		var value any
		if err := sonic.Unmarshal(body, &value); err != nil {
			return Message{Kind: KindBytes, Body: body}
		}
		return Message{Kind: KindObject, Object: value}
	default:
		return Message{Kind: KindBytes, Body: body}
	}
}
