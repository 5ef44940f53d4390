// Package message defines the wire-level data model of the CCS session:
// the downstream envelope and the closed set of inbound message variants.
package message

// Data is the string-to-string application payload carried in both directions.
type Data = map[string]string

// Well-known values of the message_type discriminator.
const (
	TypeAck     = "ack"
	TypeNack    = "nack"
	TypeControl = "control"
)

// ControlConnectionDraining tells the session to stop accepting new
// downstream messages while the gateway winds the connection down.
const ControlConnectionDraining = "CONNECTION_DRAINING"

// Envelope is a downstream message addressed to a device.
// To and MessageID are required; the remaining fields are optional and
// absent fields are omitted from the wire form entirely.
type Envelope struct {
	To             string
	MessageID      string
	Data           Data
	CollapseKey    string
	TimeToLive     *int // seconds; nil means absent, 0 is a valid value
	DelayWhileIdle bool
}

// Kind tags the inbound message variants.
type Kind int

// Inbound message kinds, discriminated on the wire message_type field.
// Upstream data messages carry no message_type at all.
const (
	KindUpstream Kind = iota
	KindAck
	KindNack
	KindControl
	KindUnknown
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindUpstream:
		return "upstream"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindControl:
		return "control"
	default:
		return "unknown"
	}
}

// Inbound is a classified inbound CCS message. Fields not present on the
// wire are left at their zero value; consumers read them defensively.
type Inbound struct {
	Kind        Kind
	From        string
	Category    string
	MessageID   string
	MessageType string // raw discriminator, empty for upstream data messages
	ControlType string
	Data        Data
}

// Classify turns a decoded generic JSON object into an Inbound variant.
// No field is required: a missing or mistyped field yields its zero value.
func Classify(obj map[string]interface{}) Inbound {
	in := Inbound{
		From:        stringField(obj, "from"),
		Category:    stringField(obj, "category"),
		MessageID:   stringField(obj, "message_id"),
		MessageType: stringField(obj, "message_type"),
		ControlType: stringField(obj, "control_type"),
		Data:        dataField(obj),
	}

	switch in.MessageType {
	case "":
		in.Kind = KindUpstream
	case TypeAck:
		in.Kind = KindAck
	case TypeNack:
		in.Kind = KindNack
	case TypeControl:
		in.Kind = KindControl
	default:
		in.Kind = KindUnknown
	}

	return in
}

func stringField(obj map[string]interface{}, key string) string {
	v, _ := obj[key].(string)
	return v
}

func dataField(obj map[string]interface{}) Data {
	raw, ok := obj["data"].(map[string]interface{})
	if !ok {
		return nil
	}
	data := make(Data, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			data[k] = s
		}
	}
	return data
}
