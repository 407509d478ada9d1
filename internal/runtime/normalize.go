package runtime

import (
	"bytes"
	"fmt"
	"sync"
	"unicode/utf8"

	"google.golang.org/protobuf/proto"

	"github.com/streamhaus/inlet/broker"
	errspkg "github.com/streamhaus/inlet/internal/runtime/errors"
	"github.com/streamhaus/inlet/internal/runtime/jsoncodec"
)

// serializeBuffers pools the scratch buffers used to serialize object
// payloads. Buffers are returned on every exit path.
var serializeBuffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// normalizePayload extracts raw bytes from a tagged broker message. A nil
// result with a nil error means the message carries nothing to forward
// (unknown kind); a non-nil error means the message must be dropped.
func normalizePayload(msg *broker.Message) ([]byte, error) {
	switch msg.Kind {
	case broker.KindText:
		if !utf8.ValidString(msg.Text) {
			return nil, errspkg.ErrDecodeFailed
		}
		return []byte(msg.Text), nil

	case broker.KindBytes:
		return msg.Body, nil

	case broker.KindObject:
		return serializeObject(msg.Object)

	default:
		return nil, nil
	}
}

// serializeObject turns a structured payload back into bytes. Protobuf
// messages use their binary encoding; everything else is JSON-encoded so the
// sink can reconstruct an equal value.
func serializeObject(obj any) ([]byte, error) {
	if pm, ok := obj.(proto.Message); ok {
		return proto.Marshal(pm)
	}

	buf := serializeBuffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		serializeBuffers.Put(buf)
	}()

	if err := jsoncodec.Encode(buf, obj); err != nil {
		return nil, fmt.Errorf("serialize object payload: %w", err)
	}

	encoded := bytes.TrimRight(buf.Bytes(), "\n")
	out := make([]byte, len(encoded))
	copy(out, encoded)
	return out, nil
}
