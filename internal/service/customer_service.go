package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/kafka/producer"
	"github.com/Dhoini/Retention-microservice/internal/metrics"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// CustomerService интерфейс сервиса для работы с клиентами
type CustomerService interface {
	GetAll(ctx context.Context) ([]*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error)
	GetHighRisk(ctx context.Context) ([]*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error
	Delete(ctx context.Context, id string) error
	FlagAtRisk(ctx context.Context, input domain.AtRiskCustomerInput) (*domain.Customer, error)
	Transition(ctx context.Context, id string, target domain.AccountStatus, reason string) (*domain.Customer, domain.TransitionResult, error)
	RecordIntervention(ctx context.Context, id, outcome, notes string) (*domain.Customer, domain.Intervention, error)
	AddRiskFactor(ctx context.Context, id, factor string) (*domain.Customer, error)
}

type customerService struct {
	repo     repository.CustomerRepository
	producer producer.RetentionProducer
	metrics  metrics.RetentionMetrics
	log      *logger.Logger
}

// NewCustomerService создает новый сервис для работы с клиентами
func NewCustomerService(repo repository.CustomerRepository, prod producer.RetentionProducer, met metrics.RetentionMetrics, log *logger.Logger) CustomerService {
	return &customerService{
		repo:     repo,
		producer: prod,
		metrics:  met,
		log:      log,
	}
}

func (s *customerService) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	s.log.Debug("Getting all customers")
	return s.repo.GetAll(ctx)
}

func (s *customerService) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	s.log.Debug("Getting customer by ID: %s", id)
	return s.repo.GetByID(ctx, id)
}

func (s *customerService) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	s.log.Debug("Getting customer by email: %s", email)
	return s.repo.GetByEmail(ctx, email)
}

func (s *customerService) GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error) {
	s.log.Debug("Getting customers by status: %s", status)

	if !status.IsValid() {
		return nil, repository.ErrInvalidData
	}

	return s.repo.GetByStatus(ctx, status)
}

// GetHighRisk возвращает клиентов, требующих интервенции, по убыванию
// оценки риска. Порядок клиентов с равной оценкой стабилен.
func (s *customerService) GetHighRisk(ctx context.Context) ([]*domain.Customer, error) {
	s.log.Debug("Selecting high risk customers")

	customers, err := s.repo.GetByStatus(ctx, domain.AccountStatusAtRisk)
	if err != nil {
		return nil, err
	}

	return domain.FindHighRiskCustomers(customers), nil
}

func (s *customerService) Create(ctx context.Context, customer *domain.Customer) error {
	s.log.Debug("Creating customer: %s", customer.ID)

	if result := customer.Validate(); !result.IsValid {
		s.log.Warn("Customer validation failed: %v", result.Errors)
		return &ValidationError{Errors: result.Errors}
	}

	return s.repo.Create(ctx, customer)
}

func (s *customerService) Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error {
	s.log.Debug("Updating customer: %s", customer.ID)

	if result := customer.Validate(); !result.IsValid {
		s.log.Warn("Customer validation failed: %v", result.Errors)
		return &ValidationError{Errors: result.Errors}
	}

	customer.LastModified = time.Now().UTC()
	return s.repo.Update(ctx, customer, expectedLastModified)
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	s.log.Debug("Deleting customer: %s", id)
	return s.repo.Delete(ctx, id)
}

// FlagAtRisk ставит нового клиента на контроль риска: создает запись
// в статусе at-risk, сохраняет ее и публикует событие в Kafka.
func (s *customerService) FlagAtRisk(ctx context.Context, input domain.AtRiskCustomerInput) (*domain.Customer, error) {
	customer := domain.NewAtRiskCustomer(input)

	if result := customer.Validate(); !result.IsValid {
		s.log.Warn("At-risk customer validation failed: %v", result.Errors)
		return nil, &ValidationError{Errors: result.Errors}
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.metrics.IncCustomerFlagged(string(customer.RiskCategory), string(customer.RiskSeverity))
	s.metrics.ObserveRiskScore(customer.CalculateRiskScore())

	if err := s.producer.PublishCustomerFlagged(ctx, customer); err != nil {
		// Событие не критично для результата операции
		s.log.Error("Failed to publish customer flagged event: %v", err)
	}

	s.log.Infow("Customer flagged as at-risk",
		"customer_id", customer.ID,
		"category", string(customer.RiskCategory),
		"severity", string(customer.RiskSeverity),
		"risk_score", customer.CalculateRiskScore(),
	)
	return customer, nil
}

// Transition выполняет переход статуса аккаунта. Недопустимый переход
// возвращает *domain.InvalidTransitionError, запись не изменяется.
func (s *customerService) Transition(ctx context.Context, id string, target domain.AccountStatus, reason string) (*domain.Customer, domain.TransitionResult, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.TransitionResult{}, err
	}

	expectedLastModified := customer.LastModified
	result, err := customer.TransitionTo(target, reason)
	if err != nil {
		s.metrics.IncTransitionRejected(string(customer.AccountStatus), string(target))
		s.log.Warn("Transition rejected for customer %s: %v", id, err)
		return nil, domain.TransitionResult{}, err
	}

	if err := s.repo.Update(ctx, customer, expectedLastModified); err != nil {
		return nil, domain.TransitionResult{}, err
	}

	s.metrics.IncStatusTransition(string(result.PreviousStatus), string(result.NewStatus))

	if err := s.producer.PublishStatusChanged(ctx, customer, result); err != nil {
		s.log.Error("Failed to publish status changed event: %v", err)
	}

	s.log.Infow("Customer status changed",
		"customer_id", customer.ID,
		"from", string(result.PreviousStatus),
		"to", string(result.NewStatus),
		"reason", reason,
	)
	return customer, result, nil
}

// RecordIntervention добавляет запись о попытке удержания в историю клиента.
func (s *customerService) RecordIntervention(ctx context.Context, id, outcome, notes string) (*domain.Customer, domain.Intervention, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Intervention{}, err
	}

	expectedLastModified := customer.LastModified
	entry := customer.RecordIntervention(outcome, notes)

	if err := s.repo.Update(ctx, customer, expectedLastModified); err != nil {
		return nil, domain.Intervention{}, err
	}

	s.metrics.IncInterventionRecorded(outcome)

	if err := s.producer.PublishInterventionRecorded(ctx, customer, entry); err != nil {
		s.log.Error("Failed to publish intervention recorded event: %v", err)
	}

	s.log.Infow("Intervention recorded", "customer_id", id, "outcome", outcome)
	return customer, entry, nil
}

// AddRiskFactor добавляет фактор риска к записи клиента.
func (s *customerService) AddRiskFactor(ctx context.Context, id, factor string) (*domain.Customer, error) {
	if factor == "" {
		return nil, repository.ErrInvalidData
	}

	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectedLastModified := customer.LastModified
	customer.AddRiskFactor(factor)

	if err := s.repo.Update(ctx, customer, expectedLastModified); err != nil {
		return nil, err
	}

	s.metrics.ObserveRiskScore(customer.CalculateRiskScore())
	s.log.Infow("Risk factor added", "customer_id", id, "factor", factor)
	return customer, nil
}

// IsValidationError сообщает, является ли ошибка ошибкой валидации клиента.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
