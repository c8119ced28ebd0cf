package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "mailfwd/contracts/mq"
)

type fakePublisher struct {
	routingKey string
	payload    any
	err        error
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.routingKey = routingKey
	f.payload = payload
	return f.err
}

func newWebhookRouter(publisher EventPublisher, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWebhookHandler(publisher, secret, zap.NewNop())
	r.POST("/webhook/inbound", h.HandleInbound)
	return r
}

func postInbound(t *testing.T, r *gin.Engine, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/inbound", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"from":       `"Jane Doe" <jane@origin.com>`,
		"to":         "alias@mydomain.com",
		"subject":    "Hello",
		"text":       "body",
		"message_id": "<original-123@origin.com>",
	}
}

func TestHandleInbound_QueuesValidatedMessage(t *testing.T) {
	pub := &fakePublisher{}
	r := newWebhookRouter(pub, "")

	w := postInbound(t, r, validBody(), nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, contracts.RoutingKeyEmailInbound, pub.routingKey)
	payload, ok := pub.payload.(contracts.EmailInboundPayload)
	require.True(t, ok)
	assert.Equal(t, "alias@mydomain.com", payload.Message.To)
	assert.False(t, payload.ReceivedAt.IsZero())
}

func TestHandleInbound_MissingFieldsNamed(t *testing.T) {
	for _, field := range []string{"from", "to", "subject", "message_id"} {
		t.Run(field, func(t *testing.T) {
			pub := &fakePublisher{}
			r := newWebhookRouter(pub, "")

			body := validBody()
			delete(body, field)

			w := postInbound(t, r, body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "missing field: "+field)
			assert.Nil(t, pub.payload)
		})
	}
}

func TestHandleInbound_RejectsBadSecret(t *testing.T) {
	pub := &fakePublisher{}
	r := newWebhookRouter(pub, "topsecret")

	w := postInbound(t, r, validBody(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postInbound(t, r, validBody(), map[string]string{"X-Webhook-Secret": "topsecret"})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHandleInbound_PublishFailure(t *testing.T) {
	pub := &fakePublisher{err: assert.AnError}
	r := newWebhookRouter(pub, "")

	w := postInbound(t, r, validBody(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
