package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "mailfwd/contracts/mq"
	"mailfwd/internal/model"
)

type fakeConfigLookup struct {
	destination string
	err         error
}

func (f *fakeConfigLookup) GetForwardingEmail(ctx context.Context, domain string) (string, error) {
	return f.destination, f.err
}

type fakeForwarder struct {
	relayID     string
	err         error
	called      bool
	destination string
}

func (f *fakeForwarder) Forward(ctx context.Context, original *model.InboundEmailMessage, destination, senderDomainOverride string) (string, error) {
	f.called = true
	f.destination = destination
	return f.relayID, f.err
}

type fakeLogRecorder struct {
	logs []model.ForwardLog
}

func (f *fakeLogRecorder) Insert(ctx context.Context, l *model.ForwardLog) (int, error) {
	f.logs = append(f.logs, *l)
	return len(f.logs), nil
}

type fakeDeduper struct {
	duplicate bool
	released  bool
}

func (f *fakeDeduper) AcquireOnce(ctx context.Context, handler, messageID string) (bool, error) {
	return !f.duplicate, nil
}

func (f *fakeDeduper) Release(ctx context.Context, handler, messageID string) error {
	f.released = true
	return nil
}

func payload(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(contracts.EmailInboundPayload{
		Message: model.InboundEmailMessage{
			From:      `"Jane Doe" <jane@origin.com>`,
			To:        "alias@MyDomain.com",
			Subject:   "Hello",
			MessageID: "<original-123@origin.com>",
		},
		ReceivedAt: time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestHandleEmailInbound_ForwardsAndRecords(t *testing.T) {
	configs := &fakeConfigLookup{destination: "dest@elsewhere.net"}
	forwarder := &fakeForwarder{relayID: "relay-9"}
	logs := &fakeLogRecorder{}
	dedup := &fakeDeduper{}

	h := NewEmailInboundForwardHandler(configs, forwarder, logs, dedup, zap.NewNop())

	require.NoError(t, h.HandleEmailInbound(context.Background(), payload(t)))

	assert.True(t, forwarder.called)
	assert.Equal(t, "dest@elsewhere.net", forwarder.destination)

	require.Len(t, logs.logs, 1)
	assert.Equal(t, model.ForwardStatusForwarded, logs.logs[0].Status)
	assert.Equal(t, "mydomain.com", logs.logs[0].Domain)
	assert.Equal(t, "relay-9", logs.logs[0].RelayMessageID)
}

func TestHandleEmailInbound_DuplicateSkipsForward(t *testing.T) {
	forwarder := &fakeForwarder{}
	h := NewEmailInboundForwardHandler(
		&fakeConfigLookup{destination: "dest@elsewhere.net"},
		forwarder,
		&fakeLogRecorder{},
		&fakeDeduper{duplicate: true},
		zap.NewNop(),
	)

	require.NoError(t, h.HandleEmailInbound(context.Background(), payload(t)))
	assert.False(t, forwarder.called)
}

func TestHandleEmailInbound_InactiveDomainSkips(t *testing.T) {
	forwarder := &fakeForwarder{}
	logs := &fakeLogRecorder{}
	h := NewEmailInboundForwardHandler(
		&fakeConfigLookup{destination: ""},
		forwarder,
		logs,
		&fakeDeduper{},
		zap.NewNop(),
	)

	require.NoError(t, h.HandleEmailInbound(context.Background(), payload(t)))

	assert.False(t, forwarder.called)
	require.Len(t, logs.logs, 1)
	assert.Equal(t, model.ForwardStatusSkipped, logs.logs[0].Status)
}

func TestHandleEmailInbound_FailureReleasesDedupAndRequeues(t *testing.T) {
	logs := &fakeLogRecorder{}
	dedup := &fakeDeduper{}
	h := NewEmailInboundForwardHandler(
		&fakeConfigLookup{destination: "dest@elsewhere.net"},
		&fakeForwarder{err: errors.New("relay send failed: status=500")},
		logs,
		dedup,
		zap.NewNop(),
	)

	err := h.HandleEmailInbound(context.Background(), payload(t))
	require.Error(t, err)

	assert.True(t, dedup.released)
	require.Len(t, logs.logs, 1)
	assert.Equal(t, model.ForwardStatusFailed, logs.logs[0].Status)
	assert.Contains(t, logs.logs[0].Error, "status=500")
}
