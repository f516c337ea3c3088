package producer

import (
	"context"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// nopProducer отбрасывает события. Используется когда Kafka отключена
// (локальная разработка, сухие прогоны сидера).
type nopProducer struct {
	log *logger.Logger
}

// NewNopProducer создает продюсер-заглушку
func NewNopProducer(log *logger.Logger) RetentionProducer {
	return &nopProducer{log: log}
}

func (p *nopProducer) PublishCustomerFlagged(ctx context.Context, customer *domain.Customer) error {
	p.log.Debugw("Kafka disabled, dropping event", "event", "customer_flagged", "customer_id", customer.ID)
	return nil
}

func (p *nopProducer) PublishStatusChanged(ctx context.Context, customer *domain.Customer, result domain.TransitionResult) error {
	p.log.Debugw("Kafka disabled, dropping event", "event", "status_changed", "customer_id", customer.ID)
	return nil
}

func (p *nopProducer) PublishInterventionRecorded(ctx context.Context, customer *domain.Customer, intervention domain.Intervention) error {
	p.log.Debugw("Kafka disabled, dropping event", "event", "intervention_recorded", "customer_id", customer.ID)
	return nil
}

func (p *nopProducer) PublishChatMessagePosted(ctx context.Context, message *domain.ChatMessage) error {
	p.log.Debugw("Kafka disabled, dropping event", "event", "chat_message_posted", "customer_id", message.CustomerID)
	return nil
}

func (p *nopProducer) Close() error {
	return nil
}
