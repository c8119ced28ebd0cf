package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailfwd/internal/model"
)

type fakeRelay struct {
	lastReq RelaySendRequest
	id      string
	err     error
}

func (f *fakeRelay) Send(ctx context.Context, req RelaySendRequest) (string, error) {
	f.lastReq = req
	return f.id, f.err
}

func testMessage() *model.InboundEmailMessage {
	return &model.InboundEmailMessage{
		From:      `"Jane Doe" <jane@origin.com>`,
		To:        "alias@mydomain.com",
		Subject:   "Hello",
		BodyText:  "plain body",
		BodyHTML:  "<p>html body</p>",
		MessageID: "<original-123@origin.com>",
	}
}

func TestForward_AlignsSenderWithRecipientDomain(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	ok := svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", "")
	require.True(t, ok)

	req := relay.lastReq
	assert.Equal(t, `"Jane Doe" <alias@mydomain.com>`, req.From)
	assert.Equal(t, "dest@elsewhere.net", req.To)
	assert.Equal(t, "Hello", req.Subject)
}

func TestForward_NoDisplayNameUsesRawAddress(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	msg := testMessage()
	msg.From = "jane@origin.com"

	require.True(t, svc.ForwardEmail(context.Background(), msg, "dest@elsewhere.net", ""))
	assert.Equal(t, `"jane@origin.com" <alias@mydomain.com>`, relay.lastReq.From)
}

func TestForward_ReplyToRoutesBackToOriginalSender(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))
	assert.Equal(t, `"Jane Doe" <jane@origin.com>`, relay.lastReq.ReplyTo)
}

func TestForward_BodiesCopiedVerbatim(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))
	assert.Equal(t, "plain body", relay.lastReq.Text)
	assert.Equal(t, "<p>html body</p>", relay.lastReq.HTML)
}

// The forwarded copy sets In-Reply-To to the inbound message's own id and
// never chains References. Kept as the observed product behavior.
func TestForward_InReplyToUsesInboundMessageID(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))
	assert.Equal(t, "<original-123@origin.com>", relay.lastReq.Headers["In-Reply-To"])
	assert.NotContains(t, relay.lastReq.Headers, "References")

	msg := testMessage()
	msg.MessageID = ""
	require.True(t, svc.ForwardEmail(context.Background(), msg, "dest@elsewhere.net", ""))
	assert.NotContains(t, relay.lastReq.Headers, "In-Reply-To")
}

func TestForward_MessageIDScopedToSenderDomain(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))

	messageID := relay.lastReq.Headers["Message-ID"]
	assert.True(t, strings.HasPrefix(messageID, "<"))
	assert.True(t, strings.HasSuffix(messageID, "@mydomain.com>"))
	assert.NotEqual(t, "<original-123@origin.com>", messageID)
}

func TestForward_ProvenanceAndReputationHeaders(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))

	headers := relay.lastReq.Headers
	assert.Equal(t, `"Jane Doe" <jane@origin.com>`, headers["X-Original-From"])
	assert.Equal(t, "alias@mydomain.com", headers["X-Original-To"])
	assert.Equal(t, "No", headers["X-Spam-Status"])
	assert.Equal(t, "first-class", headers["Precedence"])
	assert.NotEmpty(t, headers["X-Entity-Ref-ID"])
}

func TestForward_SenderDomainOverrideAndFallback(t *testing.T) {
	relay := &fakeRelay{id: "relay-1"}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	require.True(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", "override.org"))
	assert.Contains(t, relay.lastReq.From, "@override.org>")

	msg := testMessage()
	msg.To = "not-an-address"
	require.True(t, svc.ForwardEmail(context.Background(), msg, "dest@elsewhere.net", ""))
	assert.Contains(t, relay.lastReq.From, "@fallback.example.com>")
}

func TestForwardEmail_RelayErrorReturnsFalse(t *testing.T) {
	relay := &fakeRelay{err: errors.New("relay send failed: status=500 body=boom")}
	svc := NewForwardService(relay, "fallback.example.com", zap.NewNop())

	assert.False(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))
}

func TestForwardEmail_RelayHTTP500ReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewForwardService(NewRelayClient(srv.URL, "test-key"), "fallback.example.com", zap.NewNop())

	assert.False(t, svc.ForwardEmail(context.Background(), testMessage(), "dest@elsewhere.net", ""))
}
