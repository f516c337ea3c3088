package service

import (
	"context"
	"fmt"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/kafka/producer"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// ChatService интерфейс сервиса чата удержания
type ChatService interface {
	PostMessage(ctx context.Context, customerID, conversationID string, sender domain.ChatSender, body string) (*domain.ChatMessage, error)
	GetHistory(ctx context.Context, customerID string) ([]*domain.ChatMessage, error)
	CloseConversation(ctx context.Context, customerID, conversationID, outcome, notes string) (*domain.Customer, error)
}

type chatService struct {
	messages  repository.ChatMessageRepository
	customers CustomerService
	producer  producer.RetentionProducer
	log       *logger.Logger
}

// NewChatService создает новый сервис чата
func NewChatService(messages repository.ChatMessageRepository, customers CustomerService, prod producer.RetentionProducer, log *logger.Logger) ChatService {
	return &chatService{
		messages:  messages,
		customers: customers,
		producer:  prod,
		log:       log,
	}
}

// PostMessage сохраняет сообщение чата и публикует событие о нем.
// Клиент должен существовать.
func (s *chatService) PostMessage(ctx context.Context, customerID, conversationID string, sender domain.ChatSender, body string) (*domain.ChatMessage, error) {
	if !sender.IsValid() {
		return nil, fmt.Errorf("unknown chat sender %q: %w", sender, repository.ErrInvalidData)
	}
	if body == "" {
		return nil, fmt.Errorf("empty message body: %w", repository.ErrInvalidData)
	}

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	message := domain.NewChatMessage(customerID, conversationID, sender, body)
	if err := s.messages.Append(ctx, message); err != nil {
		return nil, err
	}

	if err := s.producer.PublishChatMessagePosted(ctx, message); err != nil {
		s.log.Error("Failed to publish chat message event: %v", err)
	}

	s.log.Debugw("Chat message posted", "customer_id", customerID, "conversation_id", message.ConversationID, "sender", string(sender))
	return message, nil
}

func (s *chatService) GetHistory(ctx context.Context, customerID string) ([]*domain.ChatMessage, error) {
	s.log.Debug("Getting chat history for customer: %s", customerID)
	return s.messages.GetByCustomerID(ctx, customerID)
}

// CloseConversation завершает диалог удержания и фиксирует его итог
// как интервенцию в истории клиента.
func (s *chatService) CloseConversation(ctx context.Context, customerID, conversationID, outcome, notes string) (*domain.Customer, error) {
	history, err := s.messages.GetByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, repository.ErrNotFound
	}
	// Чужой диалог для клиента не существует
	if history[0].CustomerID != customerID {
		return nil, repository.ErrNotFound
	}

	customer, _, err := s.customers.RecordIntervention(ctx, customerID, outcome, notes)
	if err != nil {
		return nil, err
	}

	s.log.Infow("Retention conversation closed",
		"customer_id", customerID,
		"conversation_id", conversationID,
		"outcome", outcome,
		"messages", len(history),
	)
	return customer, nil
}
