package config

import (
	"os"
	"strconv"
	"time"
)

// loadGatewayFromEnv loads gateway configuration from environment variables
func loadGatewayFromEnv(cfg *GatewayConfig) {
	loadGatewayStrings(cfg)
	loadGatewayInts(cfg)
	loadGatewayTimeouts(cfg)
	loadGatewayTLS(cfg)
}

func loadGatewayStrings(cfg *GatewayConfig) {
	if v := getEnvString("GATEWAY_BROKER"); v != "" {
		cfg.Broker = v
	}
	if v := getEnvString("GATEWAY_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := getEnvString("GATEWAY_UPSTREAM_TOPIC"); v != "" {
		cfg.UpstreamTopic = v
	}
	if v := getEnvString("GATEWAY_DOWNSTREAM_TOPIC"); v != "" {
		cfg.DownstreamTopic = v
	}
}

func loadGatewayInts(cfg *GatewayConfig) {
	if v := getEnvInt("GATEWAY_QOS"); v != 0 && v >= 0 && v <= 2 {
		cfg.QoS = byte(v) // #nosec G115 - validated range 0-2
	}
	if v := getEnvInt("GATEWAY_DISCONNECT_TIMEOUT"); v != 0 {
		cfg.DisconnectTimeout = uint(v) // #nosec G115 - config values are non-negative
	}
}

func loadGatewayTimeouts(cfg *GatewayConfig) {
	if v := getEnvDuration("GATEWAY_CONNECT_TIMEOUT"); v != 0 {
		cfg.ConnectTimeout = v
	}
	if v := getEnvDuration("GATEWAY_WRITE_TIMEOUT"); v != 0 {
		cfg.WriteTimeout = v
	}
	if v := getEnvDuration("GATEWAY_SUBSCRIBE_TIMEOUT"); v != 0 {
		cfg.SubscribeTimeout = v
	}
	if v := getEnvDuration("GATEWAY_MAX_RECONNECT_INTERVAL"); v != 0 {
		cfg.MaxReconnectInterval = v
	}
	if v := getEnvDuration("GATEWAY_KEEP_ALIVE"); v != 0 {
		cfg.KeepAlive = v
	}
}

func loadGatewayTLS(cfg *GatewayConfig) {
	if v := getEnvBool("GATEWAY_TLS_ENABLED"); v {
		cfg.TLSEnabled = v
	}
	if v := getEnvString("GATEWAY_CA_CERT"); v != "" {
		cfg.CACert = v
	}
	if v := getEnvString("GATEWAY_CLIENT_CERT"); v != "" {
		cfg.ClientCert = v
	}
	if v := getEnvString("GATEWAY_CLIENT_KEY"); v != "" {
		cfg.ClientKey = v
	}
	if v := getEnvBool("GATEWAY_TLS_INSECURE_SKIP"); v {
		cfg.InsecureSkip = v
	}
}

// loadSessionFromEnv loads session configuration from environment variables
func loadSessionFromEnv(cfg *SessionConfig) {
	if v := getEnvString("SESSION_SENDER_ID"); v != "" {
		cfg.SenderID = v
	}
	if v := getEnvString("SESSION_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := getEnvString("SESSION_DOMAIN"); v != "" {
		cfg.Domain = v
	}
	if v := getEnvString("SESSION_PROJECT_ID"); v != "" {
		cfg.ProjectID = v
	}
}

// loadDemoFromEnv loads demo configuration from environment variables
func loadDemoFromEnv(cfg *DemoConfig) {
	if v := getEnvString("DEMO_REGISTRATION_ID"); v != "" {
		cfg.RegistrationID = v
	}
	if v := getEnvString("DEMO_COLLAPSE_KEY"); v != "" {
		cfg.CollapseKey = v
	}
	if v := getEnvInt("DEMO_TIME_TO_LIVE"); v != 0 {
		cfg.TimeToLive = v
	}
}

// Helper functions for reading environment variables

func getEnvString(key string) string {
	return os.Getenv(key)
}

func getEnvInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return intValue
}

func getEnvDuration(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return duration
}

func getEnvBool(key string) bool {
	return os.Getenv(key) == "true"
}
