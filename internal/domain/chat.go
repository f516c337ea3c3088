package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatSender сторона, отправившая сообщение
type ChatSender string

const (
	ChatSenderAgent    ChatSender = "agent"
	ChatSenderCustomer ChatSender = "customer"
	ChatSenderSystem   ChatSender = "system"
)

// IsValid проверяет, что отправитель из известного словаря
func (s ChatSender) IsValid() bool {
	switch s {
	case ChatSenderAgent, ChatSenderCustomer, ChatSenderSystem:
		return true
	}
	return false
}

// ChatMessage сообщение чата удержания, привязанное к клиенту.
// Чат остается тонкой обвязкой вокруг ядра: сообщения не влияют на скоринг
// и правила переходов, они только фиксируют ход интервенции.
type ChatMessage struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	ConversationID string     `json:"conversation_id"`
	Sender         ChatSender `json:"sender"`
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sent_at"`
}

// NewChatMessage создает сообщение чата с синтезированным идентификатором.
// Пустой conversationID начинает новый диалог.
func NewChatMessage(customerID, conversationID string, sender ChatSender, body string) *ChatMessage {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	return &ChatMessage{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		ConversationID: conversationID,
		Sender:         sender,
		Body:           body,
		SentAt:         time.Now().UTC(),
	}
}
