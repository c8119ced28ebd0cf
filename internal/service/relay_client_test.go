package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayClient_SendSuccess(t *testing.T) {
	var gotAuth string
	var gotReq RelaySendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg_42"})
	}))
	defer srv.Close()

	client := NewRelayClient(srv.URL, "secret-key")

	id, err := client.Send(context.Background(), RelaySendRequest{
		From:    "alias@mydomain.com",
		To:      "dest@elsewhere.net",
		Subject: "hi",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_42", id)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "dest@elsewhere.net", gotReq.To)
}

func TestRelayClient_NonSuccessCapturesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	client := NewRelayClient(srv.URL, "secret-key")

	_, err := client.Send(context.Background(), RelaySendRequest{To: "dest@elsewhere.net"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status=502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestRelayClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewRelayClient(srv.URL, "secret-key")

	for range 5 {
		_, err := client.Send(context.Background(), RelaySendRequest{To: "dest@elsewhere.net"})
		require.Error(t, err)
	}

	_, err := client.Send(context.Background(), RelaySendRequest{To: "dest@elsewhere.net"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
