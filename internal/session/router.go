package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rdgames/ccs-session/internal/log"
	"github.com/rdgames/ccs-session/internal/message"
)

// sender is the send surface the router calls back into.
type sender interface {
	SendDownstream(ctx context.Context, env message.Envelope) (bool, error)
	SendAck(ctx context.Context, to, messageID string) error
	NextMessageID() string
}

// Handler processes one classified inbound message.
type Handler func(ctx context.Context, in message.Inbound)

// Router dispatches classified inbound messages by kind. Each handler can
// be replaced individually; the defaults echo upstream messages, log
// ack/nack correlation and honor draining control messages.
type Router struct {
	snd   sender
	drain *DrainState
	log   *log.Logger

	upstream Handler
	ack      Handler
	nack     Handler
	control  Handler
}

// NewRouter creates a router with the default handler set.
func NewRouter(snd sender, drain *DrainState, logger *log.Logger) *Router {
	r := &Router{
		snd:   snd,
		drain: drain,
		log:   logger,
	}
	r.upstream = r.echoUpstream
	r.ack = r.logAck
	r.nack = r.logNack
	r.control = r.handleControl
	return r
}

// OnUpstream replaces the upstream data message handler.
func (r *Router) OnUpstream(h Handler) { r.upstream = h }

// OnAck replaces the ack handler.
func (r *Router) OnAck(h Handler) { r.ack = h }

// OnNack replaces the nack handler.
func (r *Router) OnNack(h Handler) { r.nack = h }

// OnControl replaces the control message handler.
func (r *Router) OnControl(h Handler) { r.control = h }

// Route dispatches one inbound message. For upstream data messages the ack
// is sent after the handler runs, regardless of the handler's outcome, and
// an ack send failure is returned to the caller.
func (r *Router) Route(ctx context.Context, in message.Inbound) error {
	switch in.Kind {
	case message.KindUpstream:
		r.upstream(ctx, in)
		// The ack must keep flowing even while draining, so it bypasses
		// the gated send path.
		if err := r.snd.SendAck(ctx, in.From, in.MessageID); err != nil {
			return fmt.Errorf("ack for message %s: %w", in.MessageID, err)
		}
	case message.KindAck:
		r.ack(ctx, in)
	case message.KindNack:
		r.nack(ctx, in)
	case message.KindControl:
		r.control(ctx, in)
	default:
		r.log.Warn("Unrecognized message type (%s)", in.MessageType)
	}
	return nil
}

// echoUpstream is the default upstream handler: it sends the payload back
// to the originating device with an ECHO entry naming the category.
func (r *Router) echoUpstream(ctx context.Context, in message.Inbound) {
	data := make(message.Data, len(in.Data)+1)
	for k, v := range in.Data {
		data[k] = v
	}
	data["ECHO"] = "Application: " + in.Category

	env := message.Envelope{
		To:          in.From,
		MessageID:   r.snd.NextMessageID(),
		Data:        data,
		CollapseKey: "echo:CollapseKey",
	}

	if _, err := r.snd.SendDownstream(ctx, env); err != nil {
		r.log.Warn("Echo message not sent: %v", err)
	}
}

func (r *Router) logAck(_ context.Context, in message.Inbound) {
	r.log.InfoWithFields(logrus.Fields{
		"from":       in.From,
		"message_id": in.MessageID,
	}, "Ack received")
}

func (r *Router) logNack(_ context.Context, in message.Inbound) {
	r.log.InfoWithFields(logrus.Fields{
		"from":       in.From,
		"message_id": in.MessageID,
	}, "Nack received")
}

// handleControl honors CONNECTION_DRAINING and ignores everything else.
// Unrecognized control types must never abort the session.
func (r *Router) handleControl(_ context.Context, in message.Inbound) {
	if in.ControlType == message.ControlConnectionDraining {
		r.log.Info("Connection is draining, new downstream messages will be dropped")
		r.drain.BeginDraining()
		return
	}
	r.log.Info("Unrecognized control type: %s. This could happen if new features are added to the CCS protocol.", in.ControlType)
}
