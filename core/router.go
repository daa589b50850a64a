package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jdelaire/gastobot/core/intent"
	"github.com/jdelaire/gastobot/core/ops"
)

const (
	DefaultReplyTimeout = 10 * time.Second

	unauthorizedText = "🚫 Você não está autorizado a usar este serviço."
	fallbackHelpText = "Comando não reconhecido."
)

// Authorizer decides whether a sender may use the bot.
type Authorizer interface {
	Authorize(senderID string) error
}

// Router authorizes inbound messages, classifies them and replies with the
// result of the matching op. Every non-group message gets exactly one reply.
type Router struct {
	policy       Authorizer
	ops          *ops.Registry
	notifier     Notifier
	logger       *slog.Logger
	replyTimeout time.Duration
}

// NewRouter creates a Router.
func NewRouter(pol Authorizer, opsReg *ops.Registry, notifier Notifier, logger *slog.Logger) *Router {
	return &Router{
		policy:       pol,
		ops:          opsReg,
		notifier:     notifier,
		logger:       logger,
		replyTimeout: DefaultReplyTimeout,
	}
}

// WithReplyTimeout overrides how long a reply send may take.
func (r *Router) WithReplyTimeout(d time.Duration) *Router {
	if d > 0 {
		r.replyTimeout = d
	}
	return r
}

// Handle processes an inbound message: filter, authorize, classify, execute, respond.
// In-flight backend calls and replies are not cancelled with ctx.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	ctx = context.WithoutCancel(ctx)

	if msg.IsGroup {
		r.logger.Debug("ignoring group message", "chat", msg.ChatID, "id", msg.ID)
		return
	}

	if err := r.policy.Authorize(msg.SenderID); err != nil {
		r.logger.Info("message rejected by policy", "sender", msg.SenderID, "error", err)
		r.respond(ctx, msg, unauthorizedText)
		return
	}

	in := intent.Classify(msg.Text)
	r.logger.Debug("message classified", "sender", msg.SenderID, "id", msg.ID, "intent", in.Kind)

	op := r.ops.Get(in.Kind)
	if op == nil {
		op = r.ops.Get(intent.HelpOrUnknown)
	}
	if op == nil {
		r.logger.Warn("no op registered", "intent", in.Kind)
		r.respond(ctx, msg, fallbackHelpText)
		return
	}

	result, err := r.execute(ctx, op, ops.Request{SenderID: msg.SenderID, Intent: in})
	if err != nil {
		r.logger.Error("op failed", "intent", in.Kind, "sender", msg.SenderID, "error", err)
		r.respond(ctx, msg, op.FailureText())
		return
	}

	r.respond(ctx, msg, result)
}

func (r *Router) execute(ctx context.Context, op ops.Op, req ops.Request) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("op panicked: %v", p)
		}
	}()
	return op.Execute(ctx, req)
}

func (r *Router) respond(ctx context.Context, msg InboundMessage, text string) {
	reply := Reply{
		ID:        uuid.New().String(),
		Recipient: msg.ReplyTo(),
		Text:      text,
		CreatedAt: time.Now(),
	}
	ctx, cancel := context.WithTimeout(ctx, r.replyTimeout)
	defer cancel()

	if err := r.notifier.Send(ctx, reply); err != nil {
		r.logger.Error("failed to send reply", "recipient", reply.Recipient, "error", err)
	}
}
