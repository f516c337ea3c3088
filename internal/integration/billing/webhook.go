package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// SignatureHeader заголовок с HMAC-SHA256 подписью тела вебхука
const SignatureHeader = "X-Billing-Signature"

// Типы событий биллинг-провайдера, значимые для удержания
const (
	EventPaymentFailed    = "invoice.payment_failed"
	EventPaymentSucceeded = "invoice.payment_succeeded"
	EventCardExpiring     = "payment_method.card_expiring"
)

// WebhookEvent представляет событие от вебхука биллинг-провайдера
type WebhookEvent struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Created int64       `json:"created"`
	Data    WebhookData `json:"data"`
}

// WebhookData полезная нагрузка события биллинга
type WebhookData struct {
	CustomerEmail   string `json:"customer_email"`
	CustomerName    string `json:"customer_name"`
	AmountCents     int64  `json:"amount_cents"`
	FailureCount    int    `json:"failure_count,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	CardType        string `json:"card_type,omitempty"`
	CardLast4       string `json:"card_last4,omitempty"`
	CardExpMonth    int    `json:"card_exp_month,omitempty"`
	CardExpYear     int    `json:"card_exp_year,omitempty"`
}

// EventHandler интерфейс для обработки событий биллинга
type EventHandler interface {
	HandlePaymentFailed(ctx context.Context, event WebhookEvent) error
	HandlePaymentSucceeded(ctx context.Context, event WebhookEvent) error
	HandleCardExpiring(ctx context.Context, event WebhookEvent) error
}

// WebhookHandler обрабатывает вебхуки биллинг-провайдера
type WebhookHandler struct {
	client *Client
	log    *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(client *Client, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		client: client,
		log:    log,
	}
}

// VerifySignature читает тело запроса и сверяет его HMAC-SHA256 подпись
// с заголовком SignatureHeader. Возвращает тело при совпадении.
func (h *WebhookHandler) VerifySignature(r *http.Request) ([]byte, error) {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return nil, fmt.Errorf("no billing signature in request")
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(h.client.GetWebhookSecret()))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("billing signature mismatch")
	}

	return payload, nil
}

// HandleWebhook проверяет подпись, парсит событие и направляет его обработчику.
// Неизвестные типы событий подтверждаются без обработки.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request, handler EventHandler) {
	payload, err := h.VerifySignature(r)
	if err != nil {
		h.log.Error("Failed to verify webhook signature: %v", err)
		http.Error(w, "Signature verification failed", http.StatusBadRequest)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.log.Error("Failed to parse webhook event: %v", err)
		http.Error(w, "Failed to parse webhook event", http.StatusBadRequest)
		return
	}

	h.log.Info("Received billing webhook event: %s, type: %s", event.ID, event.Type)

	var handlerErr error
	switch event.Type {
	case EventPaymentFailed:
		handlerErr = handler.HandlePaymentFailed(r.Context(), event)
	case EventPaymentSucceeded:
		handlerErr = handler.HandlePaymentSucceeded(r.Context(), event)
	case EventCardExpiring:
		handlerErr = handler.HandleCardExpiring(r.Context(), event)
	default:
		h.log.Info("Ignored webhook event type: %s", event.Type)
	}

	if handlerErr != nil {
		h.log.Error("Failed to handle webhook event: %v", handlerErr)
		http.Error(w, fmt.Sprintf("Failed to handle webhook event: %v", handlerErr), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received": true}`))
}
