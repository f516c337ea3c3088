package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ChatHandler обработчик чата удержания
type ChatHandler struct {
	service service.ChatService
	log     *logger.Logger
}

// NewChatHandler создает новый обработчик чата
func NewChatHandler(svc service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		log:     log,
	}
}

// PostMessageRequest запрос на отправку сообщения чата
type PostMessageRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Sender         string `json:"sender" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

// CloseConversationRequest запрос на завершение диалога удержания
type CloseConversationRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes,omitempty"`
}

// PostMessage сохраняет сообщение чата для клиента
func (h *ChatHandler) PostMessage(c *gin.Context) {
	customerID := c.Param("id")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.PostMessage(c.Request.Context(), customerID, req.ConversationID, domain.ChatSender(req.Sender), req.Body)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		case errors.Is(err, repository.ErrInvalidData):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("Failed to post chat message: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post chat message"})
		}
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetHistory возвращает историю чата клиента
func (h *ChatHandler) GetHistory(c *gin.Context) {
	customerID := c.Param("id")

	messages, err := h.service.GetHistory(c.Request.Context(), customerID)
	if err != nil {
		h.log.Error("Failed to get chat history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get chat history"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// CloseConversation завершает диалог и фиксирует его итог как интервенцию
func (h *ChatHandler) CloseConversation(c *gin.Context) {
	customerID := c.Param("id")
	conversationID := c.Param("conversationID")

	var req CloseConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.CloseConversation(c.Request.Context(), customerID, conversationID, req.Outcome, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation or customer not found"})
			return
		}
		h.log.Error("Failed to close conversation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close conversation"})
		return
	}

	c.JSON(http.StatusOK, customer.ToJSON())
}
