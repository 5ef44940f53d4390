package config

import (
	"flag"
)

// Command line flags (have precedence over environment variables)
var (
	// Gateway flags
	flagGatewayBroker            = flag.String("gateway-broker", "", "Gateway broker URL")
	flagGatewayClientID          = flag.String("gateway-client-id", "", "Gateway client ID")
	flagGatewayUpstreamTopic     = flag.String("gateway-upstream-topic", "", "Gateway upstream topic")
	flagGatewayDownstreamTopic   = flag.String("gateway-downstream-topic", "", "Gateway downstream topic")
	flagGatewayQoS               = flag.Int("gateway-qos", -1, "Gateway QoS (0, 1, or 2)")
	flagGatewayConnectTimeout    = flag.Duration("gateway-connect-timeout", 0, "Gateway connect timeout")
	flagGatewayWriteTimeout      = flag.Duration("gateway-write-timeout", 0, "Gateway write timeout")
	flagGatewaySubscribeTimeout  = flag.Duration("gateway-subscribe-timeout", 0, "Gateway subscribe timeout")
	flagGatewayMaxReconnect      = flag.Duration("gateway-max-reconnect-interval", 0, "Gateway max reconnect interval")
	flagGatewayKeepAlive         = flag.Duration("gateway-keep-alive", 0, "Gateway keep-alive interval")
	flagGatewayDisconnectTimeout = flag.Int("gateway-disconnect-timeout", 0, "Gateway disconnect timeout (ms)")
	flagGatewayTLSEnabled        = flag.Bool("gateway-tls-enabled", false, "Enable gateway TLS")
	flagGatewayCACert            = flag.String("gateway-ca-cert", "", "Gateway CA certificate path")
	flagGatewayClientCert        = flag.String("gateway-client-cert", "", "Gateway client certificate path")
	flagGatewayClientKey         = flag.String("gateway-client-key", "", "Gateway client key path")
	flagGatewayTLSInsecureSkip   = flag.Bool("gateway-tls-insecure-skip", false, "Skip gateway TLS verification")

	// Session flags
	flagSessionSenderID  = flag.String("session-sender-id", "", "CCS sender ID")
	flagSessionAPIKey    = flag.String("session-api-key", "", "CCS API key")
	flagSessionDomain    = flag.String("session-domain", "", "CCS login domain")
	flagSessionProjectID = flag.String("session-project-id", "", "CCS project ID prefix")

	// Demo flags
	flagDemoRegistrationID = flag.String("demo-registration-id", "", "Registration ID for the sample downstream message")
	flagDemoCollapseKey    = flag.String("demo-collapse-key", "", "Collapse key for the sample downstream message")
	flagDemoTimeToLive     = flag.Int("demo-time-to-live", 0, "Time to live (seconds) for the sample downstream message")
)

// applyGatewayFlags applies command line flags to gateway configuration
func applyGatewayFlags(cfg *GatewayConfig) {
	applyGatewayFlagStrings(cfg)
	applyGatewayFlagInts(cfg)
	applyGatewayFlagTimeouts(cfg)
	applyGatewayFlagTLS(cfg)
}

func applyGatewayFlagStrings(cfg *GatewayConfig) {
	if *flagGatewayBroker != "" {
		cfg.Broker = *flagGatewayBroker
	}
	if *flagGatewayClientID != "" {
		cfg.ClientID = *flagGatewayClientID
	}
	if *flagGatewayUpstreamTopic != "" {
		cfg.UpstreamTopic = *flagGatewayUpstreamTopic
	}
	if *flagGatewayDownstreamTopic != "" {
		cfg.DownstreamTopic = *flagGatewayDownstreamTopic
	}
}

func applyGatewayFlagInts(cfg *GatewayConfig) {
	if *flagGatewayQoS != -1 && *flagGatewayQoS >= 0 && *flagGatewayQoS <= 2 {
		cfg.QoS = byte(*flagGatewayQoS) // #nosec G115 - validated range 0-2
	}
	if *flagGatewayDisconnectTimeout != 0 {
		cfg.DisconnectTimeout = uint(*flagGatewayDisconnectTimeout) // #nosec G115 - config values are non-negative
	}
}

func applyGatewayFlagTimeouts(cfg *GatewayConfig) {
	if *flagGatewayConnectTimeout != 0 {
		cfg.ConnectTimeout = *flagGatewayConnectTimeout
	}
	if *flagGatewayWriteTimeout != 0 {
		cfg.WriteTimeout = *flagGatewayWriteTimeout
	}
	if *flagGatewaySubscribeTimeout != 0 {
		cfg.SubscribeTimeout = *flagGatewaySubscribeTimeout
	}
	if *flagGatewayMaxReconnect != 0 {
		cfg.MaxReconnectInterval = *flagGatewayMaxReconnect
	}
	if *flagGatewayKeepAlive != 0 {
		cfg.KeepAlive = *flagGatewayKeepAlive
	}
}

func applyGatewayFlagTLS(cfg *GatewayConfig) {
	if *flagGatewayCACert != "" {
		cfg.CACert = *flagGatewayCACert
	}
	if *flagGatewayClientCert != "" {
		cfg.ClientCert = *flagGatewayClientCert
	}
	if *flagGatewayClientKey != "" {
		cfg.ClientKey = *flagGatewayClientKey
	}
	// Handle bool flags - check if explicitly set
	if isFlagSet("gateway-tls-enabled") {
		cfg.TLSEnabled = *flagGatewayTLSEnabled
	}
	if isFlagSet("gateway-tls-insecure-skip") {
		cfg.InsecureSkip = *flagGatewayTLSInsecureSkip
	}
}

// applySessionFlags applies command line flags to session configuration
func applySessionFlags(cfg *SessionConfig) {
	if *flagSessionSenderID != "" {
		cfg.SenderID = *flagSessionSenderID
	}
	if *flagSessionAPIKey != "" {
		cfg.APIKey = *flagSessionAPIKey
	}
	if *flagSessionDomain != "" {
		cfg.Domain = *flagSessionDomain
	}
	if *flagSessionProjectID != "" {
		cfg.ProjectID = *flagSessionProjectID
	}
}

// applyDemoFlags applies command line flags to demo configuration
func applyDemoFlags(cfg *DemoConfig) {
	if *flagDemoRegistrationID != "" {
		cfg.RegistrationID = *flagDemoRegistrationID
	}
	if *flagDemoCollapseKey != "" {
		cfg.CollapseKey = *flagDemoCollapseKey
	}
	if *flagDemoTimeToLive != 0 {
		cfg.TimeToLive = *flagDemoTimeToLive
	}
}

// isFlagSet checks if a flag was explicitly set on the command line
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
