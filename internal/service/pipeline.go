// Package service contains the webhook pipeline and reply generation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymconnect/internal/constants"
	"gymconnect/internal/metrics"
	"gymconnect/internal/models"
	"gymconnect/internal/normalize"

	"github.com/sirupsen/logrus"
)

// ErrEmptyMessage rejects payloads that normalize to no usable text.
var ErrEmptyMessage = errors.New("empty message")

// Store is the slice of the conversation store the pipeline depends on.
type Store interface {
	UpsertLead(ctx context.Context, platform models.Platform, userID string, userName, phone *string) error
	AppendTurn(ctx context.Context, platform models.Platform, userID, messageText, responseText string, transferredToHuman bool) (int64, error)
	GetRecentHistory(ctx context.Context, platform models.Platform, userID string, limit int) ([]models.ConversationTurn, error)
}

// Generator produces the reply for an inbound message.
type Generator interface {
	Generate(ctx context.Context, userMessage string, history []models.ConversationTurn) models.Reply
}

// Sender delivers a reply through the platform send API.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Result is the pipeline outcome returned to the synchronous webhook
// handler.
type Result struct {
	Ignored            bool
	Response           string
	TransferredToHuman bool
}

// Pipeline wires normalization, persistence, reply generation and
// outbound delivery into one linear per-request flow.
//
// Known gaps, kept deliberately: the inbound messageId is not used for
// deduplication and concurrent messages from the same (platform, user)
// pair are not serialized, so retried webhook deliveries can produce
// duplicate turns and duplicate sends.
type Pipeline struct {
	store     Store
	generator Generator
	sender    Sender
	logger    *logrus.Logger
}

func NewPipeline(store Store, generator Generator, sender Sender, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		generator: generator,
		sender:    sender,
		logger:    logger,
	}
}

// Process runs the full flow for one inbound payload: normalize, drop
// status-only events, persist the lead, fetch history, generate the
// reply, persist the turn, then send the reply best-effort. Store
// failures abort the request; generation and send failures never do.
func (p *Pipeline) Process(ctx context.Context, platform models.Platform, payload []byte) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	msg, drop := normalize.Normalize(platform, payload)
	if drop {
		p.logger.WithField("platform", platform).Debug("Dropping status-only webhook event")
		metrics.WebhooksProcessed.WithLabelValues(string(platform), "ignored").Inc()
		return &Result{Ignored: true}, nil
	}

	if strings.TrimSpace(msg.Message) == "" {
		metrics.WebhooksProcessed.WithLabelValues(string(platform), "rejected").Inc()
		return nil, ErrEmptyMessage
	}

	log := p.logger.WithFields(logrus.Fields{
		"platform": msg.Platform,
		"user_id":  msg.UserID,
	})
	log.WithField("message", truncate(msg.Message, 80)).Info("Inbound message received")

	if err := p.store.UpsertLead(ctx, msg.Platform, msg.UserID, nullable(msg.UserName), nullable(msg.Phone)); err != nil {
		metrics.WebhooksProcessed.WithLabelValues(string(platform), "failed").Inc()
		return nil, fmt.Errorf("failed to upsert lead: %w", err)
	}

	history, err := p.store.GetRecentHistory(ctx, msg.Platform, msg.UserID, constants.HistoryWindow)
	if err != nil {
		metrics.WebhooksProcessed.WithLabelValues(string(platform), "failed").Inc()
		return nil, fmt.Errorf("failed to fetch conversation history: %w", err)
	}

	reply := p.generator.Generate(ctx, msg.Message, history)
	switch {
	case reply.TransferredToHuman:
		metrics.RepliesGenerated.WithLabelValues("escalation").Inc()
	case reply.Fallback:
		metrics.RepliesGenerated.WithLabelValues("fallback").Inc()
	default:
		metrics.RepliesGenerated.WithLabelValues("llm").Inc()
	}

	if _, err := p.store.AppendTurn(ctx, msg.Platform, msg.UserID, msg.Message, reply.Text, reply.TransferredToHuman); err != nil {
		metrics.WebhooksProcessed.WithLabelValues(string(platform), "failed").Inc()
		return nil, fmt.Errorf("failed to append conversation turn: %w", err)
	}

	// Delivery is best-effort: the turn is already persisted and a
	// send failure must not roll it back or fail the request.
	if msg.Platform == models.PlatformWhatsApp {
		if msg.Phone == "" {
			log.Info("No phone number on inbound message, skipping outbound send")
		} else if err := p.sender.SendText(ctx, msg.Phone, reply.Text); err != nil {
			metrics.OutboundSendFailures.WithLabelValues(string(msg.Platform)).Inc()
			log.WithError(err).Error("Failed to send outbound reply")
		} else {
			log.Info("Outbound reply sent")
		}
	}

	metrics.WebhooksProcessed.WithLabelValues(string(platform), "ok").Inc()
	return &Result{Response: reply.Text, TransferredToHuman: reply.TransferredToHuman}, nil
}

// ProcessDetached runs Process in the background so the webhook handler
// can acknowledge before processing starts. The detached run owns its
// own deadline and error handling; failures are logged, never returned,
// because the platform has already been answered.
func (p *Pipeline) ProcessDetached(platform models.Platform, payload []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DetachedProcessTimeoutSec*time.Second)
		defer cancel()

		if _, err := p.Process(ctx, platform, payload); err != nil {
			p.logger.WithError(err).WithField("platform", platform).Error("Detached webhook processing failed")
		}
	}()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
