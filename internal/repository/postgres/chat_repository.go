package postgres

import (
	"context"
	"fmt"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChatMessageRepository реализация хранилища сообщений чата через PostgreSQL
type PostgresChatMessageRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresChatMessageRepository создает новый репозиторий сообщений чата
func NewPostgresChatMessageRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresChatMessageRepository {
	return &PostgresChatMessageRepository{
		db:  db,
		log: log,
	}
}

// Append добавляет сообщение. Сообщения не обновляются и не удаляются.
func (r *PostgresChatMessageRepository) Append(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, customer_id, conversation_id, sender, body, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID, message.CustomerID, message.ConversationID,
		string(message.Sender), message.Body, message.SentAt,
	)
	if err != nil {
		r.log.Errorw("Failed to append chat message", "error", err, "customerID", message.CustomerID)
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// GetByCustomerID возвращает сообщения клиента в порядке отправки
func (r *PostgresChatMessageRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, customer_id, conversation_id, sender, body, sent_at
		FROM chat_messages
		WHERE customer_id = $1
		ORDER BY sent_at ASC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	return collectChatMessages(rows)
}

// GetByConversationID возвращает сообщения разговора в порядке отправки
func (r *PostgresChatMessageRepository) GetByConversationID(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, customer_id, conversation_id, sender, body, sent_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation messages: %w", err)
	}
	defer rows.Close()

	return collectChatMessages(rows)
}

func collectChatMessages(rows pgx.Rows) ([]*domain.ChatMessage, error) {
	var messages []*domain.ChatMessage
	for rows.Next() {
		var (
			message domain.ChatMessage
			sender  string
		)
		if err := rows.Scan(
			&message.ID, &message.CustomerID, &message.ConversationID,
			&sender, &message.Body, &message.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		message.Sender = domain.ChatSender(sender)
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}
	return messages, nil
}
