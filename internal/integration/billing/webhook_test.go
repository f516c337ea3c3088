package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec-test"

// recordingHandler запоминает, какие события были обработаны
type recordingHandler struct {
	failed    []WebhookEvent
	succeeded []WebhookEvent
	expiring  []WebhookEvent
}

func (h *recordingHandler) HandlePaymentFailed(ctx context.Context, event WebhookEvent) error {
	h.failed = append(h.failed, event)
	return nil
}

func (h *recordingHandler) HandlePaymentSucceeded(ctx context.Context, event WebhookEvent) error {
	h.succeeded = append(h.succeeded, event)
	return nil
}

func (h *recordingHandler) HandleCardExpiring(ctx context.Context, event WebhookEvent) error {
	h.expiring = append(h.expiring, event)
	return nil
}

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestWebhookHandler(t *testing.T) *WebhookHandler {
	t.Helper()
	log := logger.New(logger.ERROR)
	client := NewClient(Config{APIKey: "key", WebhookSecret: testWebhookSecret, IsTest: true}, log)
	return NewWebhookHandler(client, log)
}

func webhookRequest(t *testing.T, event WebhookEvent, sign bool) *http.Request {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(payload))
	if sign {
		req.Header.Set(SignatureHeader, signPayload(payload))
	}
	return req
}

func TestWebhookHandler_DispatchesPaymentFailed(t *testing.T) {
	h := newTestWebhookHandler(t)
	recorder := &recordingHandler{}

	event := WebhookEvent{
		ID:   "evt-1",
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail: "fail@example.com",
			FailureCount:  1,
			FailureReason: "insufficient_funds",
		},
	}

	w := httptest.NewRecorder()
	h.HandleWebhook(w, webhookRequest(t, event, true), recorder)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, recorder.failed, 1)
	assert.Equal(t, "insufficient_funds", recorder.failed[0].Data.FailureReason)
	assert.Empty(t, recorder.succeeded)
}

func TestWebhookHandler_RejectsMissingSignature(t *testing.T) {
	h := newTestWebhookHandler(t)
	recorder := &recordingHandler{}

	event := WebhookEvent{ID: "evt-2", Type: EventPaymentSucceeded}
	w := httptest.NewRecorder()
	h.HandleWebhook(w, webhookRequest(t, event, false), recorder)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, recorder.succeeded)
}

func TestWebhookHandler_RejectsTamperedPayload(t *testing.T) {
	h := newTestWebhookHandler(t)
	recorder := &recordingHandler{}

	payload := []byte(`{"id":"evt-3","type":"invoice.payment_succeeded"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, signPayload([]byte(`{"id":"evt-3","type":"invoice.payment_failed"}`)))

	w := httptest.NewRecorder()
	h.HandleWebhook(w, req, recorder)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, recorder.succeeded)
}

func TestWebhookHandler_AcknowledgesUnknownEventType(t *testing.T) {
	h := newTestWebhookHandler(t)
	recorder := &recordingHandler{}

	event := WebhookEvent{ID: "evt-4", Type: "invoice.finalized"}
	w := httptest.NewRecorder()
	h.HandleWebhook(w, webhookRequest(t, event, true), recorder)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.failed)
	assert.Empty(t, recorder.succeeded)
	assert.Empty(t, recorder.expiring)
}
