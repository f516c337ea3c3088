package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// ChatMessageRepository интерфейс для хранения сообщений чата удержания
type ChatMessageRepository interface {
	Append(ctx context.Context, message *domain.ChatMessage) error
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.ChatMessage, error)
	GetByConversationID(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error)
}

// InMemoryChatMessageRepository хранение сообщений в памяти для тестов
type InMemoryChatMessageRepository struct {
	messages []*domain.ChatMessage
	mutex    sync.RWMutex
	log      *logger.Logger
}

// NewInMemoryChatMessageRepository создает новый репозиторий сообщений в памяти
func NewInMemoryChatMessageRepository(log *logger.Logger) *InMemoryChatMessageRepository {
	return &InMemoryChatMessageRepository{log: log}
}

// Append добавляет сообщение
func (r *InMemoryChatMessageRepository) Append(ctx context.Context, message *domain.ChatMessage) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

// GetByCustomerID возвращает сообщения клиента в порядке отправки
func (r *InMemoryChatMessageRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.ChatMessage, error) {
	return r.filter(func(m *domain.ChatMessage) bool { return m.CustomerID == customerID }), nil
}

// GetByConversationID возвращает сообщения разговора в порядке отправки
func (r *InMemoryChatMessageRepository) GetByConversationID(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error) {
	return r.filter(func(m *domain.ChatMessage) bool { return m.ConversationID == conversationID }), nil
}

func (r *InMemoryChatMessageRepository) filter(match func(*domain.ChatMessage) bool) []*domain.ChatMessage {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*domain.ChatMessage
	for _, m := range r.messages {
		if match(m) {
			copied := *m
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SentAt.Before(result[j].SentAt)
	})
	return result
}
