package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rdgames/ccs-session/internal/codec"
	"github.com/rdgames/ccs-session/internal/config"
	"github.com/rdgames/ccs-session/internal/log"
	"github.com/rdgames/ccs-session/internal/message"
	"github.com/rdgames/ccs-session/internal/transport"
)

type registered struct {
	listener transport.Listener
	filter   transport.Filter
}

// fakeGateway is an in-memory Gateway that records writes and lets tests
// deliver inbound stanzas synchronously.
type fakeGateway struct {
	mu           sync.Mutex
	sent         []transport.Stanza
	listeners    []registered
	interceptors []registered
	events       transport.ConnectionEvents
	identity     string
	secret       string
	connected    bool
	connectErr   error
	sendErr      error
}

var _ transport.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) AddListener(l transport.Listener, f transport.Filter) {
	g.listeners = append(g.listeners, registered{l, f})
}

func (g *fakeGateway) AddInterceptor(l transport.Listener, f transport.Filter) {
	g.interceptors = append(g.interceptors, registered{l, f})
}

func (g *fakeGateway) SetEvents(ev transport.ConnectionEvents) {
	g.events = ev
}

func (g *fakeGateway) Connect(_ context.Context, identity, secret string) error {
	if g.connectErr != nil {
		return g.connectErr
	}
	g.identity = identity
	g.secret = secret
	g.connected = true
	return nil
}

func (g *fakeGateway) Send(_ context.Context, st transport.Stanza) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	for _, in := range g.interceptors {
		if in.filter == nil || in.filter(st) {
			in.listener(st)
		}
	}
	g.mu.Lock()
	g.sent = append(g.sent, st)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) IsConnected() bool { return g.connected }

func (g *fakeGateway) Close() error {
	g.connected = false
	return nil
}

// deliver hands an inbound stanza to every accepting listener, synchronously.
func (g *fakeGateway) deliver(st transport.Stanza) {
	for _, l := range g.listeners {
		if l.filter == nil || l.filter(st) {
			l.listener(st)
		}
	}
}

func (g *fakeGateway) sentFrames() []transport.Stanza {
	g.mu.Lock()
	defer g.mu.Unlock()
	frames := make([]transport.Stanza, len(g.sent))
	copy(frames, g.sent)
	return frames
}

func testSessionConfig() *config.SessionConfig {
	return &config.SessionConfig{
		SenderID:  "123456789",
		APIKey:    "secret-key",
		Domain:    "gcm.googleapis.com",
		ProjectID: "proj-1",
	}
}

func newConnectedSession(t *testing.T) (*Session, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{}
	s := New(testSessionConfig(), gw, log.New())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	return s, gw
}

func upstreamFrame(t *testing.T, from, messageID, category string, data message.Data) transport.Stanza {
	t.Helper()
	obj := map[string]interface{}{
		"from":       from,
		"message_id": messageID,
		"category":   category,
		"data":       data,
	}
	payload, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return transport.Stanza{Kind: transport.KindMessage, Payload: payload}
}

func controlFrame(controlType string) transport.Stanza {
	return transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: []byte(`{"message_type":"control","control_type":"` + controlType + `"}`),
	}
}

func TestConnect_RegistersAndAuthenticates(t *testing.T) {
	gw := &fakeGateway{}
	s := New(testSessionConfig(), gw, log.New())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	if gw.identity != "123456789@gcm.googleapis.com" {
		t.Errorf("expected identity 123456789@gcm.googleapis.com, got %s", gw.identity)
	}
	if gw.secret != "secret-key" {
		t.Errorf("expected API key as secret, got %s", gw.secret)
	}
	if len(gw.listeners) != 1 {
		t.Errorf("expected one registered listener, got %d", len(gw.listeners))
	}
	if len(gw.interceptors) != 1 {
		t.Errorf("expected one registered interceptor, got %d", len(gw.interceptors))
	}
	if gw.events.Connected == nil || gw.events.ClosedOnError == nil {
		t.Error("expected connection event hooks to be registered")
	}
}

func TestConnect_ErrorWrapped(t *testing.T) {
	connectErr := errors.New("authentication failed")
	gw := &fakeGateway{connectErr: connectErr}
	s := New(testSessionConfig(), gw, log.New())

	err := s.Connect(context.Background())
	if err == nil {
		t.Fatal("expected Connect() to fail")
	}
	if !errors.Is(err, connectErr) {
		t.Errorf("expected wrapped transport error, got: %v", err)
	}
}

func TestSendDownstream_WritesOnce(t *testing.T) {
	s, gw := newConnectedSession(t)

	ok, err := s.SendDownstream(context.Background(), message.Envelope{
		To:        "device-1",
		MessageID: "m-1",
		Data:      message.Data{"k": "v"},
	})
	if err != nil {
		t.Fatalf("SendDownstream() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected send to succeed before draining")
	}

	frames := gw.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("expected exactly one transport write, got %d", len(frames))
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(frames[0].Payload, &wire); err != nil {
		t.Fatalf("sent frame is not valid JSON: %v", err)
	}
	if wire["to"] != "device-1" || wire["message_id"] != "m-1" {
		t.Errorf("unexpected wire form: %v", wire)
	}
}

func TestSendDownstream_EncodeErrorBeforeTransport(t *testing.T) {
	s, gw := newConnectedSession(t)

	ok, err := s.SendDownstream(context.Background(), message.Envelope{MessageID: "m-1"})
	if ok {
		t.Error("expected send to fail")
	}
	if !errors.Is(err, codec.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got: %v", err)
	}
	if len(gw.sentFrames()) != 0 {
		t.Error("expected no transport write on encode failure")
	}
}

func TestSendDownstream_TransportError(t *testing.T) {
	s, gw := newConnectedSession(t)
	gw.sendErr = transport.ErrNotConnected

	ok, err := s.SendDownstream(context.Background(), message.Envelope{
		To:        "device-1",
		MessageID: "m-1",
	})
	if ok {
		t.Error("expected send to fail when transport is not connected")
	}
	if !errors.Is(err, transport.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got: %v", err)
	}
}

func TestUpstream_ProducesEchoAndAck(t *testing.T) {
	s, gw := newConnectedSession(t)
	s.SetIDGenerator(func() string { return "m-echo-1" })

	gw.deliver(upstreamFrame(t, "D1", "M1", "app.x", message.Data{"k": "v"}))

	frames := gw.sentFrames()
	if len(frames) != 2 {
		t.Fatalf("expected echo and ack frames, got %d", len(frames))
	}

	var echo, ack map[string]interface{}
	if err := json.Unmarshal(frames[0].Payload, &echo); err != nil {
		t.Fatalf("echo frame is not valid JSON: %v", err)
	}
	if err := json.Unmarshal(frames[1].Payload, &ack); err != nil {
		t.Fatalf("ack frame is not valid JSON: %v", err)
	}

	if echo["to"] != "D1" {
		t.Errorf("expected echo addressed to D1, got %v", echo["to"])
	}
	data, _ := echo["data"].(map[string]interface{})
	if data["k"] != "v" {
		t.Errorf("expected original data in echo, got %v", data)
	}
	if data["ECHO"] != "Application: app.x" {
		t.Errorf("expected ECHO entry 'Application: app.x', got %v", data["ECHO"])
	}

	if ack["message_type"] != "ack" || ack["to"] != "D1" || ack["message_id"] != "M1" {
		t.Errorf("unexpected ack frame: %v", ack)
	}
}

func TestDraining_GatesDownstreamButNotAcks(t *testing.T) {
	s, gw := newConnectedSession(t)
	s.SetIDGenerator(func() string { return "m-echo-1" })

	gw.deliver(controlFrame("CONNECTION_DRAINING"))
	if !s.IsDraining() {
		t.Fatal("expected session to be draining")
	}

	// Gated sends now return false and never touch the transport.
	before := len(gw.sentFrames())
	for i := 0; i < 3; i++ {
		ok, err := s.SendDownstream(context.Background(), message.Envelope{
			To:        "device-1",
			MessageID: "m-1",
		})
		if err != nil {
			t.Fatalf("gated send while draining returned error: %v", err)
		}
		if ok {
			t.Fatal("expected gated send to return false while draining")
		}
	}
	if got := len(gw.sentFrames()); got != before {
		t.Errorf("expected no transport writes while draining, got %d new", got-before)
	}

	// An upstream message still gets its ack, but the echo is dropped.
	gw.deliver(upstreamFrame(t, "D1", "M1", "app.x", nil))

	frames := gw.sentFrames()
	if len(frames) != before+1 {
		t.Fatalf("expected exactly one ack frame while draining, got %d new", len(frames)-before)
	}
	var ack map[string]interface{}
	if err := json.Unmarshal(frames[len(frames)-1].Payload, &ack); err != nil {
		t.Fatalf("ack frame is not valid JSON: %v", err)
	}
	if ack["message_type"] != "ack" {
		t.Errorf("expected the surviving frame to be the ack, got %v", ack)
	}
}

func TestUnrecognizedControl_DoesNotDrain(t *testing.T) {
	s, gw := newConnectedSession(t)

	gw.deliver(controlFrame("FOO"))

	if s.IsDraining() {
		t.Error("expected draining flag untouched by unrecognized control type")
	}
	if len(gw.sentFrames()) != 0 {
		t.Error("expected no reply to a control frame")
	}
}

func TestAckNackFrames_NoReply(t *testing.T) {
	s, gw := newConnectedSession(t)

	gw.deliver(transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: []byte(`{"message_type":"ack","from":"D1","message_id":"M1"}`),
	})
	gw.deliver(transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: []byte(`{"message_type":"nack","from":"D1","message_id":"M2"}`),
	})

	if len(gw.sentFrames()) != 0 {
		t.Errorf("expected no reply frames for ack/nack, got %d", len(gw.sentFrames()))
	}
	if s.IsDraining() {
		t.Error("expected no state change from ack/nack frames")
	}
}

func TestMalformedFrame_DroppedSessionContinues(t *testing.T) {
	s, gw := newConnectedSession(t)
	s.SetIDGenerator(func() string { return "m-1" })

	gw.deliver(transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: []byte(`{"from": "D1", truncated`),
	})
	if len(gw.sentFrames()) != 0 {
		t.Fatal("expected malformed frame to be dropped without reply")
	}

	// The session keeps processing subsequent frames.
	gw.deliver(upstreamFrame(t, "D1", "M1", "app.x", nil))
	if len(gw.sentFrames()) != 2 {
		t.Errorf("expected echo and ack after recovery, got %d frames", len(gw.sentFrames()))
	}
}

func TestUnknownMessageType_NoReplyNoStateChange(t *testing.T) {
	s, gw := newConnectedSession(t)

	gw.deliver(transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: []byte(`{"message_type":"receipt","from":"D1"}`),
	})

	if len(gw.sentFrames()) != 0 {
		t.Error("expected no reply for unknown message type")
	}
	if s.IsDraining() {
		t.Error("expected no state change for unknown message type")
	}
}

func TestNextMessageID_DefaultFormat(t *testing.T) {
	s, _ := newConnectedSession(t)

	id := s.NextMessageID()
	if !strings.HasPrefix(id, "rd-") || !strings.HasSuffix(id, "-game-on") {
		t.Errorf("expected id of the form rd-<uuid>-game-on, got %s", id)
	}

	// Weakly unique: two consecutive ids should still differ.
	if s.NextMessageID() == id {
		t.Error("expected consecutive ids to differ")
	}
}

func TestSetIDGenerator_Deterministic(t *testing.T) {
	s, _ := newConnectedSession(t)
	s.SetIDGenerator(func() string { return "fixed-id" })

	if got := s.NextMessageID(); got != "fixed-id" {
		t.Errorf("expected injected generator to be used, got %s", got)
	}
}

func TestClose_ClosesGateway(t *testing.T) {
	s, gw := newConnectedSession(t)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if gw.IsConnected() {
		t.Error("expected gateway to be disconnected after Close")
	}
}

func TestConnectionEvents_AreSafeToInvoke(t *testing.T) {
	_, gw := newConnectedSession(t)

	// All hooks are logging-only; invoking them must not panic or change
	// protocol state.
	gw.events.Connected()
	gw.events.Authenticated()
	gw.events.ReconnectingIn(5)
	gw.events.Reconnected()
	gw.events.ReconnectFailed(errors.New("boom"))
	gw.events.Closed()
	gw.events.ClosedOnError(errors.New("boom"))
}
