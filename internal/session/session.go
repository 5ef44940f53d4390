// Package session implements the CCS message protocol core: stanza
// acceptance filtering, message-type dispatch, downstream send gating
// during connection draining, and acknowledgment correlation.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rdgames/ccs-session/internal/codec"
	"github.com/rdgames/ccs-session/internal/config"
	"github.com/rdgames/ccs-session/internal/log"
	"github.com/rdgames/ccs-session/internal/message"
	"github.com/rdgames/ccs-session/internal/transport"
)

// IDGenerator produces downstream message ids. Ids are for human
// correlation only and are not guaranteed globally unique; callers must
// not rely on them for deduplication.
type IDGenerator func() string

// DefaultIDGenerator wraps a random uuid in the project's id format.
func DefaultIDGenerator() string {
	return "rd-" + uuid.NewString() + "-game-on"
}

// Session owns one authenticated CCS connection for its lifetime. It wires
// the stanza filter, the message router and the connection event hooks
// into the gateway, and exposes the gated downstream send path.
type Session struct {
	cfg    *config.SessionConfig
	gw     transport.Gateway
	drain  *DrainState
	filter *StanzaFilter
	router *Router
	nextID IDGenerator
	log    *log.Logger
}

// Ensure Session satisfies the router's send surface
var _ sender = (*Session)(nil)

// New creates a session bound to a gateway. The session is not connected
// until Connect is called.
func New(cfg *config.SessionConfig, gw transport.Gateway, logger *log.Logger) *Session {
	s := &Session{
		cfg:    cfg,
		gw:     gw,
		drain:  &DrainState{},
		filter: NewStanzaFilter(cfg.ProjectID),
		nextID: DefaultIDGenerator,
		log:    logger,
	}
	s.router = NewRouter(s, s.drain, logger)
	return s
}

// SetIDGenerator replaces the message id generator.
func (s *Session) SetIDGenerator(gen IDGenerator) {
	s.nextID = gen
}

// Router exposes the message router so embedders can replace handlers.
func (s *Session) Router() *Router {
	return s.router
}

// IsDraining reports whether the gateway asked the session to drain.
func (s *Session) IsDraining() bool {
	return s.drain.IsDraining()
}

// Connect registers the filtered listener, the outbound interceptor and
// the connection event hooks, then establishes and authenticates the
// gateway connection as "<senderID>@<domain>".
func (s *Session) Connect(ctx context.Context) error {
	s.gw.SetEvents(s.connectionEvents())
	s.gw.AddListener(s.handleStanza, s.filter.Accept)
	s.gw.AddInterceptor(s.logOutgoing, s.filter.Accept)

	identity := fmt.Sprintf("%s@%s", s.cfg.SenderID, s.cfg.Domain)
	s.log.Info("Connecting as %s...", identity)
	if err := s.gw.Connect(ctx, identity, s.cfg.APIKey); err != nil {
		return fmt.Errorf("ccs connect: %w", err)
	}
	return nil
}

// Close shuts the gateway connection down.
func (s *Session) Close() error {
	return s.gw.Close()
}

// NextMessageID returns an id for a new downstream message.
func (s *Session) NextMessageID() string {
	return s.nextID()
}

// SendDownstream sends a downstream message through the gated path. While
// the session is draining it logs, performs no transport write and returns
// false. An encode failure is reported before any transport interaction.
func (s *Session) SendDownstream(ctx context.Context, env message.Envelope) (bool, error) {
	if s.drain.IsDraining() {
		s.log.Info("Dropping downstream message since the connection is draining")
		return false, nil
	}

	payload, err := codec.EncodeDownstream(env)
	if err != nil {
		return false, err
	}

	if err := s.sendRaw(ctx, payload); err != nil {
		s.log.Warn("Not connected anymore, downstream message is not sent: %v", err)
		return false, err
	}
	return true, nil
}

// SendAck acknowledges an upstream message through the ungated path. Send
// failures are surfaced to the caller rather than absorbed: failing to ack
// is a caller-visible condition.
func (s *Session) SendAck(ctx context.Context, to, messageID string) error {
	return s.sendRaw(ctx, codec.EncodeAck(to, messageID))
}

// sendRaw writes one frame to the gateway with no drain gating.
func (s *Session) sendRaw(ctx context.Context, payload []byte) error {
	return s.gw.Send(ctx, transport.Stanza{
		Kind:    transport.KindMessage,
		Payload: payload,
	})
}

// handleStanza is the inbound listener: unwrap, decode, classify, route.
// A malformed frame is logged and dropped; the session continues.
func (s *Session) handleStanza(st transport.Stanza) {
	s.log.Debug("Received: %s", st.Payload)

	obj, err := codec.Decode(st.Payload)
	if err != nil {
		s.log.Error("Error parsing JSON %s: %v", st.Payload, err)
		return
	}

	if err := s.router.Route(context.Background(), message.Classify(obj)); err != nil {
		s.log.Error("Failed to process stanza: %v", err)
	}
}

// logOutgoing is the outbound interceptor.
func (s *Session) logOutgoing(st transport.Stanza) {
	s.log.Debug("Sent: %s", st.Payload)
}

// connectionEvents are logging hooks with no protocol-level side effects.
func (s *Session) connectionEvents() transport.ConnectionEvents {
	return transport.ConnectionEvents{
		Connected: func() {
			s.log.Info("Connected")
		},
		Authenticated: func() {
			s.log.Info("Authenticated")
		},
		ReconnectingIn: func(maxSeconds int) {
			s.log.Info("Reconnecting within %d secs", maxSeconds)
		},
		Reconnected: func() {
			s.log.Info("Reconnected")
		},
		ReconnectFailed: func(err error) {
			s.log.Info("Reconnection failed: %v", err)
		},
		Closed: func() {
			s.log.Info("Connection closed")
		},
		ClosedOnError: func(err error) {
			s.log.Error("Connection closed on error: %v", err)
		},
	}
}
