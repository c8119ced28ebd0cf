package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mailfwd/pkg/circuitbreaker"
	"mailfwd/pkg/metrics"
)

// RelaySendRequest is the relay send API payload.
type RelaySendRequest struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text,omitempty"`
	HTML    string            `json:"html,omitempty"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type relaySendResponse struct {
	ID string `json:"id"`
}

// RelayClient talks to the mail relay's send API. Calls go through a circuit
// breaker so a dead relay sheds load quickly instead of tying up workers.
type RelayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewRelayClient(baseURL, apiKey string) *RelayClient {
	return &RelayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// Send submits one message and returns the relay-assigned message id.
// Non-2xx responses are errors carrying the status and response body.
func (c *RelayClient) Send(ctx context.Context, sendReq RelaySendRequest) (string, error) {
	var relayID string

	start := time.Now()
	err := c.breaker.Execute(func() error {
		id, err := c.send(ctx, sendReq)
		relayID = id
		return err
	})

	if err != nil {
		metrics.RecordRelaySendLatency("error", time.Since(start))
		return "", err
	}
	metrics.RecordRelaySendLatency("ok", time.Since(start))
	return relayID, nil
}

func (c *RelayClient) send(ctx context.Context, sendReq RelaySendRequest) (string, error) {
	b, err := json.Marshal(sendReq)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Capture the body for operator diagnosis. 2KB is plenty for
		// relay error payloads.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("relay send failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var sendResp relaySendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return "", fmt.Errorf("relay response decode failed: %w", err)
	}
	return sendResp.ID, nil
}
