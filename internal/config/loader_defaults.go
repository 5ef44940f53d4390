package config

import "time"

// defaultGatewayConfig returns the default gateway configuration
func defaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Broker:               "tcp://localhost:1883",
		ClientID:             "ccs-session",
		UpstreamTopic:        "ccs/upstream",
		DownstreamTopic:      "ccs/downstream",
		QoS:                  1,
		ConnectTimeout:       30 * time.Second,
		WriteTimeout:         10 * time.Second,
		SubscribeTimeout:     10 * time.Second,
		MaxReconnectInterval: 10 * time.Second,
		KeepAlive:            60 * time.Second,
		DisconnectTimeout:    1000,
		TLSEnabled:           false,
		CACert:               "",
		ClientCert:           "",
		ClientKey:            "",
		InsecureSkip:         false,
	}
}

// defaultSessionConfig returns the default session configuration.
// SenderID and APIKey have no usable defaults and must be provided.
func defaultSessionConfig() SessionConfig {
	return SessionConfig{
		SenderID:  "",
		APIKey:    "",
		Domain:    "gcm.googleapis.com",
		ProjectID: "",
	}
}

// defaultDemoConfig returns the default demo configuration
func defaultDemoConfig() DemoConfig {
	return DemoConfig{
		RegistrationID: "",
		CollapseKey:    "sample",
		TimeToLive:     10000,
	}
}

// defaultConfig returns a complete configuration with all default values
func defaultConfig() *Config {
	return &Config{
		Gateway: defaultGatewayConfig(),
		Session: defaultSessionConfig(),
		Demo:    defaultDemoConfig(),
	}
}
