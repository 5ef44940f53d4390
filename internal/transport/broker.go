package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rdgames/ccs-session/internal/config"
	"github.com/rdgames/ccs-session/internal/log"
)

type filtered struct {
	listener Listener
	filter   Filter
}

// Broker is the Gateway implementation over an MQTT broker. Inbound frames
// arrive on the upstream topic and are delivered asynchronously, one
// goroutine per accepted frame; outbound frames are published on the
// downstream topic after the registered interceptors run.
type Broker struct {
	cfg    *config.GatewayConfig
	client mqtt.Client
	log    *log.Logger

	mu           sync.RWMutex
	listeners    []filtered
	interceptors []filtered
	events       ConnectionEvents

	everConnected atomic.Bool
}

// Ensure Broker implements Gateway
var _ Gateway = (*Broker)(nil)

// NewBroker creates an unconnected broker gateway.
func NewBroker(cfg *config.GatewayConfig, logger *log.Logger) *Broker {
	return &Broker{
		cfg: cfg,
		log: logger,
	}
}

// AddListener registers an inbound stanza callback with its filter.
func (b *Broker) AddListener(l Listener, f Filter) {
	b.mu.Lock()
	b.listeners = append(b.listeners, filtered{listener: l, filter: f})
	b.mu.Unlock()
}

// AddInterceptor registers an outbound stanza callback with its filter.
func (b *Broker) AddInterceptor(l Listener, f Filter) {
	b.mu.Lock()
	b.interceptors = append(b.interceptors, filtered{listener: l, filter: f})
	b.mu.Unlock()
}

// SetEvents registers the connection lifecycle callbacks.
func (b *Broker) SetEvents(ev ConnectionEvents) {
	b.mu.Lock()
	b.events = ev
	b.mu.Unlock()
}

// Connect establishes the broker connection with the supplied credentials
// and subscribes to the upstream topic.
func (b *Broker) Connect(ctx context.Context, identity, secret string) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.Broker)
	opts.SetClientID(b.cfg.ClientID)
	opts.SetUsername(identity)
	opts.SetPassword(secret)
	opts.SetConnectTimeout(b.cfg.ConnectTimeout)
	opts.SetWriteTimeout(b.cfg.WriteTimeout)
	opts.SetKeepAlive(b.cfg.KeepAlive)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(b.cfg.MaxReconnectInterval)
	opts.SetResumeSubs(true)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Error("Gateway connection lost: %v", err)
		if ev := b.currentEvents(); ev.ClosedOnError != nil {
			ev.ClosedOnError(err)
		}
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		b.notifyReconnecting()
	})

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		ev := b.currentEvents()
		if b.everConnected.Swap(true) {
			if ev.Reconnected != nil {
				ev.Reconnected()
			}
			return
		}
		if ev.Connected != nil {
			ev.Connected()
		}
	})

	// Configure TLS if enabled
	if b.cfg.TLSEnabled {
		tlsConfig, err := newTLSConfig(b.cfg)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(b.cfg.ConnectTimeout) {
		return fmt.Errorf("gateway connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	if err := b.subscribeUpstream(client); err != nil {
		client.Disconnect(b.cfg.DisconnectTimeout)
		return err
	}

	if ev := b.currentEvents(); ev.Authenticated != nil {
		ev.Authenticated()
	}
	return nil
}

// subscribeUpstream starts the inbound frame flow for this identity.
func (b *Broker) subscribeUpstream(client mqtt.Client) error {
	token := client.Subscribe(b.cfg.UpstreamTopic, b.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		b.dispatch(Stanza{
			Kind:    KindMessage,
			To:      msg.Topic(),
			Payload: msg.Payload(),
		})
	})

	if !token.WaitTimeout(b.cfg.SubscribeTimeout) {
		return fmt.Errorf("gateway subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to upstream topic: %w", err)
	}
	return nil
}

// dispatch delivers an inbound stanza to every listener whose filter
// accepts it, one goroutine per delivery.
func (b *Broker) dispatch(st Stanza) {
	b.mu.RLock()
	listeners := make([]filtered, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, fl := range listeners {
		if fl.filter != nil && !fl.filter(st) {
			continue
		}
		go fl.listener(st)
	}
}

// intercept runs the outbound interceptors for an accepted stanza.
func (b *Broker) intercept(st Stanza) {
	b.mu.RLock()
	interceptors := make([]filtered, len(b.interceptors))
	copy(interceptors, b.interceptors)
	b.mu.RUnlock()

	for _, fl := range interceptors {
		if fl.filter != nil && !fl.filter(st) {
			continue
		}
		fl.listener(st)
	}
}

// Send publishes one stanza on the downstream topic.
func (b *Broker) Send(ctx context.Context, st Stanza) error {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		return fmt.Errorf("gateway send: %w", ErrNotConnected)
	}

	b.intercept(st)

	token := client.Publish(b.cfg.DownstreamTopic, b.cfg.QoS, false, st.Payload)

	// Wait for publish with timeout
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := token.Error(); err != nil {
			return fmt.Errorf("gateway publish failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.cfg.WriteTimeout):
		return fmt.Errorf("gateway publish timeout")
	}
}

// IsConnected reports whether the channel is currently usable.
func (b *Broker) IsConnected() bool {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()
	return client != nil && client.IsConnected()
}

// Close disconnects from the broker.
func (b *Broker) Close() error {
	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(b.cfg.DisconnectTimeout)
		if ev := b.currentEvents(); ev.Closed != nil {
			ev.Closed()
		}
	}
	return nil
}

// notifyReconnecting reports the retry delay bound to the events surface.
// The underlying client backs off from one second up to the configured
// maximum and does not expose the per-attempt delay, so the bound is the
// only honest figure available.
func (b *Broker) notifyReconnecting() {
	if ev := b.currentEvents(); ev.ReconnectingIn != nil {
		ev.ReconnectingIn(int(b.cfg.MaxReconnectInterval.Seconds()))
	}
}

func (b *Broker) currentEvents() ConnectionEvents {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events
}

// newTLSConfig creates a TLS configuration from the gateway config
func newTLSConfig(cfg *config.GatewayConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		// Note: Enabling InsecureSkipVerify weakens TLS security and should only be used for testing.
		InsecureSkipVerify: cfg.InsecureSkip, // #nosec G402 - configurable for testing environments
		MinVersion:         tls.VersionTLS12,
	}

	// Load CA certificate if provided
	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	// Load client certificate and key if provided
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
