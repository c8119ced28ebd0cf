package mq

import (
	"time"

	"mailfwd/internal/model"
)

// Routing key for inbound email deliveries.
const RoutingKeyEmailInbound = "email.inbound"

// EmailInboundPayload is published by the webhook handler once a delivery
// has been validated, and consumed by the forwarding worker.
type EmailInboundPayload struct {
	Message    model.InboundEmailMessage `json:"message"`
	ReceivedAt time.Time                 `json:"received_at"`
}
