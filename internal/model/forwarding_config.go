package model

import "time"

// Verification lifecycle for a forwarding config. Monotonic: once a domain
// reaches verified there is no path back to pending.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// ForwardingConfig is the persisted per-domain forwarding record. The domain
// is the unique key and is stored lowercased.
type ForwardingConfig struct {
	Domain            string    `json:"domain"`
	ForwardTo         string    `json:"forward_to"`
	VerificationToken string    `json:"verification_token"`
	Status            string    `json:"status"`
	Enabled           bool      `json:"enabled"`
	CreatedAt         time.Time `json:"created_at"`
}
