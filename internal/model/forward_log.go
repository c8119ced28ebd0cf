package model

import "time"

// Forward attempt outcomes.
const (
	ForwardStatusForwarded = "forwarded"
	ForwardStatusFailed    = "failed"
	ForwardStatusSkipped   = "skipped"
)

// ForwardLog records one inbound delivery and what happened to it.
type ForwardLog struct {
	ID             int       `json:"id"`
	Domain         string    `json:"domain"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	MessageID      string    `json:"message_id"`
	Status         string    `json:"status"`
	RelayMessageID string    `json:"relay_message_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
