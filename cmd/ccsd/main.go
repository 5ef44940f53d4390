// Package main starts the CCS session daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rdgames/ccs-session/internal/config"
	"github.com/rdgames/ccs-session/internal/log"
	"github.com/rdgames/ccs-session/internal/message"
	"github.com/rdgames/ccs-session/internal/session"
	"github.com/rdgames/ccs-session/internal/transport"
)

func run() int {
	logger := log.New()
	logger.Info("Starting CCS session daemon")

	cfg, err := loadAndLogConfig(logger)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return 1
	}

	gw := transport.NewBroker(&cfg.Gateway, logger)
	sess := session.New(&cfg.Session, gw, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Gateway.ConnectTimeout)
	defer connectCancel()
	if err := sess.Connect(connectCtx); err != nil {
		logger.Error("Failed to connect: %v", err)
		return 1
	}
	defer closeSession(sess, logger)

	if err := sendSampleMessage(ctx, sess, &cfg.Demo, logger); err != nil {
		logger.Error("Failed to send sample message: %v", err)
		return 1
	}

	return waitForShutdown(logger)
}

func loadAndLogConfig(logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded successfully")
	logger.Info("Gateway: %s, Upstream: %s, Downstream: %s", cfg.Gateway.Broker, cfg.Gateway.UpstreamTopic, cfg.Gateway.DownstreamTopic)
	logger.Info("Session: sender %s, domain %s, project %s", cfg.Session.SenderID, cfg.Session.Domain, cfg.Session.ProjectID)
	return cfg, nil
}

// sendSampleMessage sends one hello downstream message to the configured
// registration id. With no registration id configured it does nothing.
func sendSampleMessage(ctx context.Context, sess *session.Session, cfg *config.DemoConfig, logger *log.Logger) error {
	if cfg.RegistrationID == "" {
		logger.Info("No demo registration ID configured, skipping sample message")
		return nil
	}

	messageID := sess.NextMessageID()
	ttl := cfg.TimeToLive
	env := message.Envelope{
		To:        cfg.RegistrationID,
		MessageID: messageID,
		Data: message.Data{
			"Message":           "Aha, it works!",
			"CCS":               "Dummy Message",
			"EmbeddedMessageId": messageID,
		},
		CollapseKey:    cfg.CollapseKey,
		TimeToLive:     &ttl,
		DelayWhileIdle: true,
	}

	ok, err := sess.SendDownstream(ctx, env)
	if err != nil {
		return err
	}
	if ok {
		logger.Info("Sample message %s sent", messageID)
	}
	return nil
}

func closeSession(sess *session.Session, logger *log.Logger) {
	if err := sess.Close(); err != nil {
		logger.Error("Error closing session: %v", err)
	}
}

func waitForShutdown(logger *log.Logger) int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Session established, waiting for messages")

	sig := <-sigChan
	logger.Info("Received signal %v, shutting down", sig)
	return 0
}

func main() {
	// Keep main minimal to ensure defers in run() execute correctly.
	os.Exit(run())
}
