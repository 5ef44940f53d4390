// Package config provides configuration loading and validation from environment variables and command line flags.
package config

import "time"

// Config holds the complete configuration
type Config struct {
	Gateway GatewayConfig
	Session SessionConfig
	Demo    DemoConfig
}

// GatewayConfig holds the broker connection configuration for the
// bidirectional stanza channel.
type GatewayConfig struct {
	Broker               string
	ClientID             string
	UpstreamTopic        string // inbound frames from devices via the gateway
	DownstreamTopic      string // outbound frames toward devices
	QoS                  byte
	ConnectTimeout       time.Duration
	WriteTimeout         time.Duration
	SubscribeTimeout     time.Duration
	MaxReconnectInterval time.Duration
	KeepAlive            time.Duration
	DisconnectTimeout    uint // Milliseconds for graceful disconnect
	// TLS Configuration
	TLSEnabled   bool
	CACert       string
	ClientCert   string
	ClientKey    string
	InsecureSkip bool
}

// SessionConfig holds the CCS session identity and credentials.
// The login identity is formed as "<SenderID>@<Domain>".
type SessionConfig struct {
	SenderID  string
	APIKey    string
	Domain    string
	ProjectID string // frames addressed under this prefix belong to the session
}

// DemoConfig drives the sample downstream message sent at startup.
// An empty RegistrationID disables the sample send.
type DemoConfig struct {
	RegistrationID string
	CollapseKey    string
	TimeToLive     int // seconds
}
