// Package codec encodes and decodes the JSON envelope exchanged with the
// CCS gateway. Encoding is schema-driven; decoding is deliberately generic
// so unrecognized fields and message types pass through untouched.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rdgames/ccs-session/internal/message"
	"github.com/rdgames/ccs-session/pkg/jsonfast"
)

// ErrMissingField is reported when a required envelope field is absent.
var ErrMissingField = errors.New("missing required field")

// ErrMalformed is reported when an inbound payload is not valid JSON.
var ErrMalformed = errors.New("malformed json")

// EncodeDownstream builds the wire form of a downstream message.
// Optional fields that are absent are omitted entirely, never emitted as null.
func EncodeDownstream(env message.Envelope) ([]byte, error) {
	if env.To == "" {
		return nil, fmt.Errorf("%w: to", ErrMissingField)
	}
	if env.MessageID == "" {
		return nil, fmt.Errorf("%w: message_id", ErrMissingField)
	}

	b := jsonfast.New(256)
	b.BeginObject()
	b.AddStringField("to", env.To)
	if env.CollapseKey != "" {
		b.AddStringField("collapse_key", env.CollapseKey)
	}
	if env.TimeToLive != nil {
		b.AddIntField("time_to_live", *env.TimeToLive)
	}
	if env.DelayWhileIdle {
		b.AddBoolField("delay_while_idle", true)
	}
	b.AddStringField("message_id", env.MessageID)
	b.AddStringMapField("data", env.Data)
	b.EndObject()

	return b.Bytes(), nil
}

// EncodeAck builds the acknowledgment for an upstream message.
func EncodeAck(to, messageID string) []byte {
	b := jsonfast.New(128)
	b.BeginObject()
	b.AddStringField("message_type", message.TypeAck)
	b.AddStringField("to", to)
	b.AddStringField("message_id", messageID)
	b.EndObject()
	return b.Bytes()
}

// Decode parses an inbound payload into a generic key-value object.
// No schema validation happens here; consumers read expected fields
// defensively via message.Classify.
func Decode(payload []byte) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return obj, nil
}
