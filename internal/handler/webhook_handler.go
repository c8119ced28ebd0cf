package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	contracts "mailfwd/contracts/mq"
	"mailfwd/internal/model"
)

// EventPublisher publishes validated deliveries for the worker.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type WebhookHandler struct {
	publisher EventPublisher
	secret    string
	logger    *zap.Logger
}

func NewWebhookHandler(publisher EventPublisher, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		secret:    secret,
		logger:    logger,
	}
}

type inboundAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

type inboundEmailRequest struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	Subject     string              `json:"subject"`
	Text        string              `json:"text"`
	HTML        string              `json:"html"`
	MessageID   string              `json:"message_id"`
	InReplyTo   string              `json:"in_reply_to"`
	References  []string            `json:"references"`
	Attachments []inboundAttachment `json:"attachments"`
}

// validate rejects deliveries missing a required field, naming the field, and
// produces the typed message the pipeline runs on.
func (r *inboundEmailRequest) validate() (*model.InboundEmailMessage, error) {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"from", r.From},
		{"to", r.To},
		{"subject", r.Subject},
		{"message_id", r.MessageID},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("missing field: %s", f.name)
		}
	}

	msg := &model.InboundEmailMessage{
		From:       r.From,
		To:         r.To,
		Subject:    r.Subject,
		BodyText:   r.Text,
		BodyHTML:   r.HTML,
		MessageID:  r.MessageID,
		InReplyTo:  r.InReplyTo,
		References: r.References,
	}
	for _, a := range r.Attachments {
		msg.Attachments = append(msg.Attachments, model.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}
	return msg, nil
}

// HandleInbound handles POST /webhook/inbound from the relay provider.
func (h *WebhookHandler) HandleInbound(c *gin.Context) {
	if h.secret != "" && c.GetHeader("X-Webhook-Secret") != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var req inboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := req.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload := contracts.EmailInboundPayload{
		Message:    *msg,
		ReceivedAt: time.Now(),
	}

	if err := h.publisher.Publish(contracts.RoutingKeyEmailInbound, payload); err != nil {
		h.logger.Error("Failed to publish inbound email event",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue email"})
		return
	}

	h.logger.Info("Inbound email queued",
		zap.String("message_id", msg.MessageID),
		zap.String("to", msg.To),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"message_id": msg.MessageID,
	})
}
