package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/kafka"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/IBM/sarama"
)

// CustomerEvent представляет событие удержания для Kafka
type CustomerEvent struct {
	CustomerID     string               `json:"customer_id"`
	Email          string               `json:"email"`
	AccountStatus  domain.AccountStatus `json:"account_status"`
	PreviousStatus domain.AccountStatus `json:"previous_status,omitempty"`
	RiskCategory   domain.RiskCategory  `json:"risk_category,omitempty"`
	RiskScore      int                  `json:"risk_score"`
	Reason         string               `json:"reason,omitempty"`
	Outcome        string               `json:"outcome,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}

// ChatMessageEvent представляет событие чата для Kafka
type ChatMessageEvent struct {
	MessageID      string            `json:"message_id"`
	CustomerID     string            `json:"customer_id"`
	ConversationID string            `json:"conversation_id"`
	Sender         domain.ChatSender `json:"sender"`
	Timestamp      time.Time         `json:"timestamp"`
}

// RetentionProducer интерфейс для отправки событий удержания
type RetentionProducer interface {
	PublishCustomerFlagged(ctx context.Context, customer *domain.Customer) error
	PublishStatusChanged(ctx context.Context, customer *domain.Customer, result domain.TransitionResult) error
	PublishInterventionRecorded(ctx context.Context, customer *domain.Customer, intervention domain.Intervention) error
	PublishChatMessagePosted(ctx context.Context, message *domain.ChatMessage) error
	Close() error
}

type kafkaRetentionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaRetentionProducer создает новый продюсер событий удержания
func NewKafkaRetentionProducer(producer sarama.SyncProducer, log *logger.Logger) RetentionProducer {
	return &kafkaRetentionProducer{
		producer: producer,
		log:      log,
	}
}

// PublishCustomerFlagged публикует событие о постановке клиента на контроль риска
func (p *kafkaRetentionProducer) PublishCustomerFlagged(ctx context.Context, customer *domain.Customer) error {
	event := CustomerEvent{
		CustomerID:    customer.ID,
		Email:         customer.Email,
		AccountStatus: customer.AccountStatus,
		RiskCategory:  customer.RiskCategory,
		RiskScore:     customer.CalculateRiskScore(),
		Timestamp:     time.Now().UTC(),
	}
	return p.publish(kafka.TopicCustomerFlagged, customer.ID, event)
}

// PublishStatusChanged публикует событие о переходе статуса аккаунта
func (p *kafkaRetentionProducer) PublishStatusChanged(ctx context.Context, customer *domain.Customer, result domain.TransitionResult) error {
	event := CustomerEvent{
		CustomerID:     customer.ID,
		Email:          customer.Email,
		AccountStatus:  result.NewStatus,
		PreviousStatus: result.PreviousStatus,
		RiskCategory:   customer.RiskCategory,
		RiskScore:      customer.CalculateRiskScore(),
		Reason:         result.Reason,
		Timestamp:      time.Now().UTC(),
	}
	return p.publish(kafka.TopicStatusChanged, customer.ID, event)
}

// PublishInterventionRecorded публикует событие о записанной интервенции
func (p *kafkaRetentionProducer) PublishInterventionRecorded(ctx context.Context, customer *domain.Customer, intervention domain.Intervention) error {
	event := CustomerEvent{
		CustomerID:    customer.ID,
		Email:         customer.Email,
		AccountStatus: customer.AccountStatus,
		RiskCategory:  customer.RiskCategory,
		RiskScore:     customer.CalculateRiskScore(),
		Outcome:       intervention.Outcome,
		Timestamp:     intervention.Date,
	}
	return p.publish(kafka.TopicInterventionRecorded, customer.ID, event)
}

// PublishChatMessagePosted публикует событие о новом сообщении чата
func (p *kafkaRetentionProducer) PublishChatMessagePosted(ctx context.Context, message *domain.ChatMessage) error {
	event := ChatMessageEvent{
		MessageID:      message.ID,
		CustomerID:     message.CustomerID,
		ConversationID: message.ConversationID,
		Sender:         message.Sender,
		Timestamp:      message.SentAt,
	}
	return p.publish(kafka.TopicChatMessagePosted, message.CustomerID, event)
}

// publish сериализует событие и отправляет его в указанный топик
func (p *kafkaRetentionProducer) publish(topic, key string, event interface{}) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal retention event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish retention event", "error", err, "topic", topic, "key", key)
		return fmt.Errorf("failed to publish retention event: %w", err)
	}

	p.log.Debugw("Retention event published", "topic", topic, "key", key, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер Kafka
func (p *kafkaRetentionProducer) Close() error {
	return p.producer.Close()
}
