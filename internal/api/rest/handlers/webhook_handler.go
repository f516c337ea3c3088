package handlers

import (
	"github.com/Dhoini/Retention-microservice/internal/integration/billing"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// WebhookHandler обработчик вебхуков биллинг-провайдера
type WebhookHandler struct {
	webhook *billing.WebhookHandler
	events  billing.EventHandler
	log     *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(webhook *billing.WebhookHandler, events billing.EventHandler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhook: webhook,
		events:  events,
		log:     log,
	}
}

// HandleBillingWebhook принимает вебхук биллинга
func (h *WebhookHandler) HandleBillingWebhook(c *gin.Context) {
	h.webhook.HandleWebhook(c.Writer, c.Request, h.events)
}
