// Package transport abstracts the persistent bidirectional stanza channel
// between the session core and the push gateway, and provides the broker
// backed implementation of it.
package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is reported by Send when no connection is active.
var ErrNotConnected = errors.New("transport: not connected")

// StanzaKind distinguishes base protocol frames from everything else the
// channel may carry.
type StanzaKind int

const (
	// KindMessage is the base protocol frame type carrying a JSON payload.
	KindMessage StanzaKind = iota
	// KindOther covers frames outside the base type (presence, service frames).
	KindOther
)

// Stanza is one unit of exchange on the channel.
type Stanza struct {
	Kind    StanzaKind
	To      string // destination address, rendered as text; may be empty
	Payload []byte // embedded JSON payload
}

// Filter decides whether a stanza belongs to the session. A nil filter
// accepts everything.
type Filter func(Stanza) bool

// Listener receives stanzas accepted by its filter.
type Listener func(Stanza)

// ConnectionEvents is the connection lifecycle callback surface. Every
// callback is optional; nil callbacks are skipped. ReconnectingIn reports
// an upper bound on the delay before the next connection attempt, in
// seconds; the actual backoff may be shorter.
type ConnectionEvents struct {
	Connected       func()
	Authenticated   func()
	ReconnectingIn  func(maxSeconds int)
	Reconnected     func()
	ReconnectFailed func(err error)
	Closed          func()
	ClosedOnError   func(err error)
}

// Gateway is a persistent, authenticated, bidirectional stanza channel.
// Listeners, interceptors and events must be registered before Connect.
type Gateway interface {
	// AddListener registers a callback for inbound stanzas accepted by f.
	AddListener(l Listener, f Filter)
	// AddInterceptor registers a callback invoked for outbound stanzas
	// accepted by f, before they reach the wire.
	AddInterceptor(l Listener, f Filter)
	// SetEvents registers the connection lifecycle callbacks.
	SetEvents(ev ConnectionEvents)
	// Connect establishes and authenticates the channel.
	Connect(ctx context.Context, identity, secret string) error
	// Send writes one stanza to the channel.
	Send(ctx context.Context, st Stanza) error
	// IsConnected reports whether the channel is currently usable.
	IsConnected() bool
	// Close shuts the channel down.
	Close() error
}
