package config

import "fmt"

// Validate checks configuration constraints
func Validate(cfg *Config) error {
	if err := validateGateway(&cfg.Gateway); err != nil {
		return err
	}
	if err := validateSession(&cfg.Session); err != nil {
		return err
	}
	return validateDemo(&cfg.Demo)
}

// validateGateway validates gateway configuration
func validateGateway(cfg *GatewayConfig) error {
	if cfg.Broker == "" {
		return fmt.Errorf("gateway broker cannot be empty")
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("gateway client ID cannot be empty")
	}
	if cfg.UpstreamTopic == "" {
		return fmt.Errorf("gateway upstream topic cannot be empty")
	}
	if cfg.DownstreamTopic == "" {
		return fmt.Errorf("gateway downstream topic cannot be empty")
	}
	if cfg.QoS > 2 {
		return fmt.Errorf("gateway qos must be 0, 1 or 2")
	}
	return nil
}

// validateSession validates session configuration
func validateSession(cfg *SessionConfig) error {
	if cfg.SenderID == "" {
		return fmt.Errorf("session sender ID cannot be empty")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("session API key cannot be empty")
	}
	if cfg.Domain == "" {
		return fmt.Errorf("session domain cannot be empty")
	}
	if cfg.ProjectID == "" {
		return fmt.Errorf("session project ID cannot be empty")
	}
	return nil
}

// validateDemo validates demo configuration
func validateDemo(cfg *DemoConfig) error {
	if cfg.TimeToLive < 0 {
		return fmt.Errorf("demo time to live cannot be negative")
	}
	return nil
}
