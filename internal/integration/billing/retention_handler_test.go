package billing

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopProducer отбрасывает события Kafka в тестах
type nopProducer struct{}

func (p *nopProducer) PublishCustomerFlagged(ctx context.Context, customer *domain.Customer) error {
	return nil
}
func (p *nopProducer) PublishStatusChanged(ctx context.Context, customer *domain.Customer, result domain.TransitionResult) error {
	return nil
}
func (p *nopProducer) PublishInterventionRecorded(ctx context.Context, customer *domain.Customer, intervention domain.Intervention) error {
	return nil
}
func (p *nopProducer) PublishChatMessagePosted(ctx context.Context, message *domain.ChatMessage) error {
	return nil
}
func (p *nopProducer) Close() error { return nil }

// nopMetrics отбрасывает метрики в тестах
type nopMetrics struct{}

func (nopMetrics) IncCustomerFlagged(category, severity string) {}
func (nopMetrics) IncStatusTransition(from, to string)          {}
func (nopMetrics) IncInterventionRecorded(outcome string)       {}
func (nopMetrics) IncTransitionRejected(from, to string)        {}
func (nopMetrics) ObserveRiskScore(score int)                   {}

func newTestRetentionHandler(t *testing.T) (*RetentionEventHandler, service.CustomerService) {
	t.Helper()
	log := logger.New(logger.ERROR)
	customers := service.NewCustomerService(repository.NewInMemoryCustomerRepository(log), &nopProducer{}, nopMetrics{}, log)
	return NewRetentionEventHandler(customers, log), customers
}

func TestRetentionHandler_PaymentFailedFlagsUnknownCustomer(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	err := h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail: "new@example.com",
			CustomerName:  "Новый клиент",
			AmountCents:   59900,
			FailureCount:  1,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
	assert.Equal(t, domain.RiskCategoryFailedPayment, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityMedium, customer.RiskSeverity)
}

func TestRetentionHandler_RepeatedFailuresEscalateCategory(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	err := h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail: "repeat@example.com",
			CustomerName:  "Систематический неплательщик",
			FailureCount:  4,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByEmail(context.Background(), "repeat@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCategoryMultipleFailures, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityHigh, customer.RiskSeverity)
}

func TestRetentionHandler_PaymentFailedForKnownCustomer(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	existing, err := customers.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:         "Известный клиент",
		Email:        "known@example.com",
		RiskCategory: domain.RiskCategoryExpiringCard,
	})
	require.NoError(t, err)

	err = h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail: "known@example.com",
			FailureReason: "card_declined",
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Contains(t, customer.RiskFactors, "payment-failed:card_declined")
	// Клиент уже at-risk, статус не меняется
	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
}

func TestRetentionHandler_PaymentSucceededResolvesRisk(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	existing, err := customers.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:         "Исправившийся клиент",
		Email:        "recovered@example.com",
		RiskCategory: domain.RiskCategoryFailedPayment,
	})
	require.NoError(t, err)

	err = h.HandlePaymentSucceeded(context.Background(), WebhookEvent{
		Type: EventPaymentSucceeded,
		Data: WebhookData{CustomerEmail: "recovered@example.com"},
	})
	require.NoError(t, err)

	customer, err := customers.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusResolved, customer.AccountStatus)
	assert.Equal(t, domain.RiskCategory(""), customer.RiskCategory)
}

func TestRetentionHandler_PaymentSucceededForUnknownCustomerIsNoop(t *testing.T) {
	h, _ := newTestRetentionHandler(t)

	err := h.HandlePaymentSucceeded(context.Background(), WebhookEvent{
		Type: EventPaymentSucceeded,
		Data: WebhookData{CustomerEmail: "stranger@example.com"},
	})
	assert.NoError(t, err)
}

func TestRetentionHandler_CardExpiring(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	err := h.HandleCardExpiring(context.Background(), WebhookEvent{
		Type: EventCardExpiring,
		Data: WebhookData{
			CustomerEmail: "card@example.com",
			CustomerName:  "Клиент с истекающей картой",
			CardExpMonth:  9,
			CardExpYear:   2026,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByEmail(context.Background(), "card@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCategoryExpiringCard, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityLow, customer.RiskSeverity)

	// Повторное событие для известного клиента добавляет фактор риска
	err = h.HandleCardExpiring(context.Background(), WebhookEvent{
		Type: EventCardExpiring,
		Data: WebhookData{
			CustomerEmail: "card@example.com",
			CardExpMonth:  9,
			CardExpYear:   2026,
		},
	})
	require.NoError(t, err)

	customer, err = customers.GetByEmail(context.Background(), "card@example.com")
	require.NoError(t, err)
	assert.Contains(t, customer.RiskFactors, "card-expiring:09/2026")
}

// createActiveCustomer заводит действующего клиента без открытого риска
func createActiveCustomer(t *testing.T, customers service.CustomerService, name, email string) *domain.Customer {
	t.Helper()
	customer := domain.FromJSON(domain.CustomerJSON{
		ID:           "cust-" + email,
		Name:         name,
		Email:        email,
		AccountValue: 49900,
	})
	require.NoError(t, customers.Create(context.Background(), customer))
	return customer
}

func TestRetentionHandler_PaymentFailedFlagsActiveCustomer(t *testing.T) {
	h, customers := newTestRetentionHandler(t)
	existing := createActiveCustomer(t, customers, "Действующий клиент", "active@example.com")

	err := h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type:    EventPaymentFailed,
		Created: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC).Unix(),
		Data: WebhookData{
			CustomerEmail:   "active@example.com",
			FailureCount:    1,
			FailureReason:   "insufficient_funds",
			PaymentMethodID: "pm-777",
			CardType:        "visa",
			CardLast4:       "4242",
			CardExpMonth:    11,
			CardExpYear:     2027,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
	assert.Equal(t, domain.RiskCategoryFailedPayment, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityMedium, customer.RiskSeverity)
	assert.True(t, customer.RequiresIntervention())
	assert.True(t, customer.Validate().IsValid)
	assert.Contains(t, customer.RiskFactors, "payment-failed:insufficient_funds")

	require.NotNil(t, customer.PaymentMethod)
	assert.Equal(t, "pm-777", customer.PaymentMethod.ID)
	assert.Equal(t, "4242", customer.PaymentMethod.LastFourDigits)
	assert.Equal(t, "failing", customer.PaymentMethod.Status)
	assert.Equal(t, 1, customer.PaymentMethod.FailureCount)
	assert.Equal(t, "2026-08-01", customer.PaymentMethod.LastFailureDate)

	// Клиент попадает в очередь интервенций
	highRisk, err := customers.GetHighRisk(context.Background())
	require.NoError(t, err)
	require.Len(t, highRisk, 1)
	assert.Equal(t, existing.ID, highRisk[0].ID)
}

func TestRetentionHandler_PaymentFailedReflagsResolvedCustomer(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	existing, err := customers.FlagAtRisk(context.Background(), domain.AtRiskCustomerInput{
		Name:         "Вернувшийся должник",
		Email:        "relapse@example.com",
		RiskCategory: domain.RiskCategoryFailedPayment,
	})
	require.NoError(t, err)
	_, _, err = customers.Transition(context.Background(), existing.ID, domain.AccountStatusResolved, "paid up")
	require.NoError(t, err)

	err = h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail: "relapse@example.com",
			FailureCount:  3,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
	assert.Equal(t, domain.RiskCategoryMultipleFailures, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityHigh, customer.RiskSeverity)
	assert.True(t, customer.RequiresIntervention())
}

func TestRetentionHandler_CardExpiringFlagsActiveCustomer(t *testing.T) {
	h, customers := newTestRetentionHandler(t)
	existing := createActiveCustomer(t, customers, "Клиент со старой картой", "oldcard@example.com")

	err := h.HandleCardExpiring(context.Background(), WebhookEvent{
		Type: EventCardExpiring,
		Data: WebhookData{
			CustomerEmail:   "oldcard@example.com",
			PaymentMethodID: "pm-555",
			CardType:        "mastercard",
			CardLast4:       "1881",
			CardExpMonth:    9,
			CardExpYear:     2026,
		},
	})
	require.NoError(t, err)

	customer, err := customers.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusAtRisk, customer.AccountStatus)
	assert.Equal(t, domain.RiskCategoryExpiringCard, customer.RiskCategory)
	assert.Equal(t, domain.RiskSeverityLow, customer.RiskSeverity)
	assert.True(t, customer.Validate().IsValid)

	require.NotNil(t, customer.PaymentMethod)
	assert.Equal(t, "expiring", customer.PaymentMethod.Status)
	assert.Equal(t, 9, customer.PaymentMethod.ExpiryMonth)
	assert.Equal(t, 2026, customer.PaymentMethod.ExpiryYear)
}

func TestRetentionHandler_PaymentSucceededResetsPaymentMethod(t *testing.T) {
	h, customers := newTestRetentionHandler(t)

	// Неудачный платеж заводит клиента со снапшотом метода оплаты
	err := h.HandlePaymentFailed(context.Background(), WebhookEvent{
		Type: EventPaymentFailed,
		Data: WebhookData{
			CustomerEmail:   "reset@example.com",
			CustomerName:    "Исправившийся клиент",
			FailureCount:    2,
			PaymentMethodID: "pm-333",
			CardLast4:       "0005",
		},
	})
	require.NoError(t, err)

	err = h.HandlePaymentSucceeded(context.Background(), WebhookEvent{
		Type:    EventPaymentSucceeded,
		Created: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC).Unix(),
		Data:    WebhookData{CustomerEmail: "reset@example.com"},
	})
	require.NoError(t, err)

	customer, err := customers.GetByEmail(context.Background(), "reset@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusResolved, customer.AccountStatus)
	require.NotNil(t, customer.PaymentMethod)
	assert.Equal(t, "active", customer.PaymentMethod.Status)
	assert.Equal(t, 0, customer.PaymentMethod.FailureCount)
	assert.Equal(t, "2026-08-15", customer.PaymentMethod.LastSuccessDate)
}
