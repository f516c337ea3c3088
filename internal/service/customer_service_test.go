package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProducer записывает опубликованные события вместо отправки в Kafka
type stubProducer struct {
	mu            sync.Mutex
	flagged       []string
	statusChanged []domain.TransitionResult
	interventions []domain.Intervention
	chatMessages  []string
	failPublish   bool
}

func (p *stubProducer) PublishCustomerFlagged(ctx context.Context, customer *domain.Customer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPublish {
		return errors.New("broker unavailable")
	}
	p.flagged = append(p.flagged, customer.ID)
	return nil
}

func (p *stubProducer) PublishStatusChanged(ctx context.Context, customer *domain.Customer, result domain.TransitionResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPublish {
		return errors.New("broker unavailable")
	}
	p.statusChanged = append(p.statusChanged, result)
	return nil
}

func (p *stubProducer) PublishInterventionRecorded(ctx context.Context, customer *domain.Customer, intervention domain.Intervention) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPublish {
		return errors.New("broker unavailable")
	}
	p.interventions = append(p.interventions, intervention)
	return nil
}

func (p *stubProducer) PublishChatMessagePosted(ctx context.Context, message *domain.ChatMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPublish {
		return errors.New("broker unavailable")
	}
	p.chatMessages = append(p.chatMessages, message.ID)
	return nil
}

func (p *stubProducer) Close() error { return nil }

// stubMetrics считает вызовы метрик
type stubMetrics struct {
	flagged     int
	transitions int
	rejected    int
	recorded    int
	scores      []int
}

func (m *stubMetrics) IncCustomerFlagged(category, severity string) { m.flagged++ }
func (m *stubMetrics) IncStatusTransition(from, to string)          { m.transitions++ }
func (m *stubMetrics) IncInterventionRecorded(outcome string)       { m.recorded++ }
func (m *stubMetrics) IncTransitionRejected(from, to string)        { m.rejected++ }
func (m *stubMetrics) ObserveRiskScore(score int)                   { m.scores = append(m.scores, score) }

func newTestCustomerService(t *testing.T) (CustomerService, *repository.InMemoryCustomerRepository, *stubProducer, *stubMetrics) {
	t.Helper()
	log := logger.New(logger.ERROR)
	repo := repository.NewInMemoryCustomerRepository(log)
	prod := &stubProducer{}
	met := &stubMetrics{}
	return NewCustomerService(repo, prod, met, log), repo, prod, met
}

func seedCustomer(t *testing.T, svc CustomerService) *domain.Customer {
	t.Helper()
	customer, err := svc.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:            "Анна Соколова",
		Email:           "anna.sokolova@example.com",
		RiskCategory:    domain.RiskCategoryFailedPayment,
		RiskSeverity:    domain.RiskSeverityHigh,
		AccountValue:    249900,
		CustomerSince:   "2022-11-04",
		LastPaymentDate: "2025-05-20",
	})
	require.NoError(t, err)
	return customer
}

func TestCustomerService_FlagAtRisk(t *testing.T) {
	svc, _, prod, met := newTestCustomerService(t)

	customer := seedCustomer(t, svc)

	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
	assert.Equal(t, []string{customer.ID}, prod.flagged)
	assert.Equal(t, 1, met.flagged)
	require.Len(t, met.scores, 1)
	assert.Equal(t, customer.CalculateRiskScore(), met.scores[0])

	stored, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.Email, stored.Email)
}

func TestCustomerService_FlagAtRisk_ValidationFailure(t *testing.T) {
	svc, _, prod, _ := newTestCustomerService(t)

	_, err := svc.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:  "Без категории",
		Email: "no-category@example.com",
		// RiskCategory отсутствует, для at-risk это нарушение
	})

	require.Error(t, err)
	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Errors, "risk category is required for at-risk accounts")
	assert.Empty(t, prod.flagged)
}

func TestCustomerService_FlagAtRisk_PublishFailureIsNotFatal(t *testing.T) {
	svc, _, prod, _ := newTestCustomerService(t)
	prod.failPublish = true

	customer := seedCustomer(t, svc)

	// Клиент сохранен несмотря на недоступность брокера
	stored, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, stored.ID)
}

func TestCustomerService_Transition(t *testing.T) {
	svc, _, prod, met := newTestCustomerService(t)
	customer := seedCustomer(t, svc)

	updated, result, err := svc.Transition(context.Background(), customer.ID, domain.AccountStatusResolved, "payment method updated")
	require.NoError(t, err)

	assert.Equal(t, domain.AccountStatusResolved, updated.AccountStatus)
	assert.Equal(t, domain.AccountStatusAtRisk, result.PreviousStatus)
	assert.Equal(t, domain.RiskCategory(""), updated.RiskCategory)
	assert.Equal(t, 1, met.transitions)
	require.Len(t, prod.statusChanged, 1)
	assert.Equal(t, "payment method updated", prod.statusChanged[0].Reason)

	stored, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusResolved, stored.AccountStatus)
}

func TestCustomerService_Transition_Rejected(t *testing.T) {
	svc, _, prod, met := newTestCustomerService(t)
	customer := seedCustomer(t, svc)

	_, _, err := svc.Transition(context.Background(), customer.ID, domain.AccountStatusActive, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var transitionErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.AccountStatusAtRisk, transitionErr.From)

	assert.Equal(t, 1, met.rejected)
	assert.Empty(t, prod.statusChanged)

	// Запись не изменилась
	stored, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusAtRisk, stored.AccountStatus)
}

func TestCustomerService_Transition_NotFound(t *testing.T) {
	svc, _, _, _ := newTestCustomerService(t)

	_, _, err := svc.Transition(context.Background(), "missing", domain.AccountStatusResolved, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCustomerService_RecordIntervention(t *testing.T) {
	svc, _, prod, met := newTestCustomerService(t)
	customer := seedCustomer(t, svc)

	updated, entry, err := svc.RecordIntervention(context.Background(), customer.ID, "offered-discount", "20% на три месяца")
	require.NoError(t, err)

	assert.Equal(t, "offered-discount", entry.Outcome)
	require.Len(t, updated.InterventionHistory, 1)
	assert.Equal(t, 1, met.recorded)
	require.Len(t, prod.interventions, 1)

	stored, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Len(t, stored.InterventionHistory, 1)
	assert.Equal(t, "offered-discount", stored.InterventionHistory[0].Outcome)
}

func TestCustomerService_AddRiskFactor(t *testing.T) {
	svc, _, _, _ := newTestCustomerService(t)
	customer := seedCustomer(t, svc)

	updated, err := svc.AddRiskFactor(context.Background(), customer.ID, "support-ticket-escalated")
	require.NoError(t, err)
	assert.Contains(t, updated.RiskFactors, "support-ticket-escalated")

	_, err = svc.AddRiskFactor(context.Background(), customer.ID, "")
	assert.ErrorIs(t, err, repository.ErrInvalidData)
}

func TestCustomerService_GetHighRisk_Ordering(t *testing.T) {
	svc, _, _, _ := newTestCustomerService(t)

	low, err := svc.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:         "Низкий риск",
		Email:        "low@example.com",
		RiskCategory: domain.RiskCategoryExpiringCard,
		RiskSeverity: domain.RiskSeverityLow,
	})
	require.NoError(t, err)

	high, err := svc.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:         "Высокий риск",
		Email:        "high@example.com",
		RiskCategory: domain.RiskCategoryMultipleFailures,
		RiskSeverity: domain.RiskSeverityCritical,
		AccountValue: 500000,
	})
	require.NoError(t, err)

	ranked, err := svc.GetHighRisk(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, high.ID, ranked[0].ID)
	assert.Equal(t, low.ID, ranked[1].ID)
}

func TestCustomerService_Update_ConcurrentModification(t *testing.T) {
	svc, _, _, _ := newTestCustomerService(t)
	customer := seedCustomer(t, svc)

	stale := customer.LastModified.Add(-time.Minute)
	copyOfCustomer := customer.Clone()
	copyOfCustomer.Name = "Новое имя"

	err := svc.Update(context.Background(), copyOfCustomer, stale)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCustomerService_Create_Validates(t *testing.T) {
	svc, _, _, _ := newTestCustomerService(t)

	err := svc.Create(context.Background(), &domain.Customer{})
	require.Error(t, err)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}
