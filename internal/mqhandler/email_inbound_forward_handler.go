package mqhandler

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	contracts "mailfwd/contracts/mq"
	"mailfwd/internal/model"
	"mailfwd/pkg/metrics"
)

// ConfigLookup resolves whether and where a domain forwards.
type ConfigLookup interface {
	GetForwardingEmail(ctx context.Context, domain string) (string, error)
}

// Forwarder submits one rebuilt message to the relay.
type Forwarder interface {
	Forward(ctx context.Context, original *model.InboundEmailMessage, destination, senderDomainOverride string) (string, error)
}

// LogRecorder persists forward attempt outcomes.
type LogRecorder interface {
	Insert(ctx context.Context, l *model.ForwardLog) (int, error)
}

// Deduper guards against webhook re-deliveries.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, messageID string) (bool, error)
	Release(ctx context.Context, handler, messageID string) error
}

const dedupHandlerName = "forward"

// EmailInboundForwardHandler consumes email.inbound events and forwards each
// message to its configured destination.
type EmailInboundForwardHandler struct {
	configs   ConfigLookup
	forwarder Forwarder
	logs      LogRecorder
	deduper   Deduper
	logger    *zap.Logger
}

func NewEmailInboundForwardHandler(
	configs ConfigLookup,
	forwarder Forwarder,
	logs LogRecorder,
	deduper Deduper,
	logger *zap.Logger,
) *EmailInboundForwardHandler {
	return &EmailInboundForwardHandler{
		configs:   configs,
		forwarder: forwarder,
		logs:      logs,
		deduper:   deduper,
		logger:    logger,
	}
}

// HandleEmailInbound processes one inbound delivery. An error return requeues
// the message; skipped and duplicate deliveries ack without forwarding.
func (h *EmailInboundForwardHandler) HandleEmailInbound(ctx context.Context, raw json.RawMessage) error {
	var p contracts.EmailInboundPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal inbound email payload", zap.Error(err))
		return err
	}
	msg := p.Message

	first, err := h.deduper.AcquireOnce(ctx, dedupHandlerName, msg.MessageID)
	if err != nil {
		return err
	}
	if !first {
		h.logger.Info("Duplicate delivery skipped",
			zap.String("message_id", msg.MessageID),
			zap.String("to", msg.To),
		)
		return nil
	}

	domain := recipientDomain(msg.To)

	destination, err := h.configs.GetForwardingEmail(ctx, domain)
	if err != nil {
		_ = h.deduper.Release(ctx, dedupHandlerName, msg.MessageID)
		return err
	}
	if destination == "" {
		h.logger.Info("Forwarding not active for domain, skipping",
			zap.String("domain", domain),
			zap.String("message_id", msg.MessageID),
		)
		h.record(ctx, &msg, domain, model.ForwardStatusSkipped, "", "forwarding not active")
		metrics.IncrementForward(model.ForwardStatusSkipped)
		return nil
	}

	relayID, err := h.forwarder.Forward(ctx, &msg, destination, "")
	if err != nil {
		// Release the dedup key so the requeued delivery gets retried.
		_ = h.deduper.Release(ctx, dedupHandlerName, msg.MessageID)
		h.record(ctx, &msg, domain, model.ForwardStatusFailed, "", err.Error())
		metrics.IncrementForward(model.ForwardStatusFailed)
		return err
	}

	h.record(ctx, &msg, domain, model.ForwardStatusForwarded, relayID, "")
	metrics.IncrementForward(model.ForwardStatusForwarded)
	return nil
}

func (h *EmailInboundForwardHandler) record(ctx context.Context, msg *model.InboundEmailMessage, domain, status, relayID, errMsg string) {
	_, err := h.logs.Insert(ctx, &model.ForwardLog{
		Domain:         domain,
		Sender:         msg.From,
		Recipient:      msg.To,
		Subject:        msg.Subject,
		MessageID:      msg.MessageID,
		Status:         status,
		RelayMessageID: relayID,
		Error:          errMsg,
	})
	if err != nil {
		h.logger.Error("Failed to insert forward log",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
}

func recipientDomain(to string) string {
	if i := strings.LastIndex(to, "@"); i >= 0 && i < len(to)-1 {
		return strings.ToLower(strings.TrimSuffix(to[i+1:], ">"))
	}
	return ""
}
