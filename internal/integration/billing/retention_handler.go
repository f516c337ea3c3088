package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// Порог, после которого неудачные платежи считаются систематическими
const multipleFailuresThreshold = 3

// RetentionEventHandler транслирует события биллинга в действия удержания:
// неудачный платеж ставит клиента на контроль риска, успешный платеж
// разрешает открытый риск, истекающая карта заводит раннее предупреждение.
// Снапшот метода оплаты заменяется целиком данными события.
type RetentionEventHandler struct {
	customers service.CustomerService
	log       *logger.Logger
}

// NewRetentionEventHandler создает новый обработчик событий биллинга
func NewRetentionEventHandler(customers service.CustomerService, log *logger.Logger) *RetentionEventHandler {
	return &RetentionEventHandler{
		customers: customers,
		log:       log,
	}
}

// HandlePaymentFailed обрабатывает неудавшийся платеж.
// Неизвестный клиент создается сразу в статусе at-risk; известному
// обновляются снапшот метода оплаты, категория и срочность риска,
// активные и разрешенные аккаунты возвращаются на контроль.
func (h *RetentionEventHandler) HandlePaymentFailed(ctx context.Context, event WebhookEvent) error {
	category := domain.RiskCategoryFailedPayment
	severity := domain.RiskSeverityMedium
	if event.Data.FailureCount >= multipleFailuresThreshold {
		category = domain.RiskCategoryMultipleFailures
		severity = domain.RiskSeverityHigh
	}

	snapshot := paymentMethodSnapshot(event)
	if snapshot != nil {
		snapshot.Status = "failing"
		snapshot.LastFailureDate = eventDate(event)
	}

	customer, err := h.customers.GetByEmail(ctx, event.Data.CustomerEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return h.flagNewCustomer(ctx, event, category, severity, snapshot)
	}
	if err != nil {
		return err
	}

	if err := h.applyBillingProfile(ctx, customer, category, severity, snapshot); err != nil {
		return err
	}

	factor := fmt.Sprintf("payment-failed:%s", event.Data.FailureReason)
	if event.Data.FailureReason == "" {
		factor = "payment-failed"
	}
	if _, err := h.customers.AddRiskFactor(ctx, customer.ID, factor); err != nil {
		return fmt.Errorf("failed to add risk factor: %w", err)
	}

	// Активный или разрешенный клиент возвращается на контроль риска
	if canFlagAtRisk(customer.AccountStatus) {
		if _, _, err := h.customers.Transition(ctx, customer.ID, domain.AccountStatusAtRisk, "billing payment failed"); err != nil {
			return fmt.Errorf("failed to transition customer to at-risk: %w", err)
		}
	}

	return nil
}

// HandlePaymentSucceeded обрабатывает успешный платеж: открытый риск
// считается разрешенным, счетчик неудач метода оплаты сбрасывается.
// Для клиентов вне статуса at-risk событие подтверждается без перехода.
func (h *RetentionEventHandler) HandlePaymentSucceeded(ctx context.Context, event WebhookEvent) error {
	customer, err := h.customers.GetByEmail(ctx, event.Data.CustomerEmail)
	if errors.Is(err, repository.ErrNotFound) {
		h.log.Debug("Payment succeeded for unknown customer: %s", event.Data.CustomerEmail)
		return nil
	}
	if err != nil {
		return err
	}

	snapshot := paymentMethodSnapshot(event)
	if snapshot == nil && customer.PaymentMethod != nil {
		snapshot = customer.PaymentMethod
	}
	if snapshot != nil {
		snapshot.Status = "active"
		snapshot.FailureCount = 0
		snapshot.LastSuccessDate = eventDate(event)
		customer.PaymentMethod = snapshot
		if err := h.customers.Update(ctx, customer, customer.LastModified); err != nil {
			return fmt.Errorf("failed to update payment method snapshot: %w", err)
		}
	}

	if customer.AccountStatus != domain.AccountStatusAtRisk {
		return nil
	}

	if _, _, err := h.customers.Transition(ctx, customer.ID, domain.AccountStatusResolved, "billing payment succeeded"); err != nil {
		return fmt.Errorf("failed to resolve customer risk: %w", err)
	}

	return nil
}

// HandleCardExpiring обрабатывает приближающееся истечение карты
func (h *RetentionEventHandler) HandleCardExpiring(ctx context.Context, event WebhookEvent) error {
	snapshot := paymentMethodSnapshot(event)
	if snapshot != nil {
		snapshot.Status = "expiring"
	}

	customer, err := h.customers.GetByEmail(ctx, event.Data.CustomerEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return h.flagNewCustomer(ctx, event, domain.RiskCategoryExpiringCard, domain.RiskSeverityLow, snapshot)
	}
	if err != nil {
		return err
	}

	if err := h.applyBillingProfile(ctx, customer, domain.RiskCategoryExpiringCard, domain.RiskSeverityLow, snapshot); err != nil {
		return err
	}

	factor := fmt.Sprintf("card-expiring:%02d/%d", event.Data.CardExpMonth, event.Data.CardExpYear)
	if _, err := h.customers.AddRiskFactor(ctx, customer.ID, factor); err != nil {
		return fmt.Errorf("failed to add risk factor: %w", err)
	}

	if canFlagAtRisk(customer.AccountStatus) {
		if _, _, err := h.customers.Transition(ctx, customer.ID, domain.AccountStatusAtRisk, "card expiring soon"); err != nil {
			return fmt.Errorf("failed to transition customer to at-risk: %w", err)
		}
	}

	return nil
}

// flagNewCustomer создает клиента в статусе at-risk по данным события
// и прикрепляет к нему снапшот метода оплаты, если событие его несет.
func (h *RetentionEventHandler) flagNewCustomer(ctx context.Context, event WebhookEvent, category domain.RiskCategory, severity domain.RiskSeverity, snapshot *domain.PaymentMethod) error {
	customer, err := h.customers.FlagAtRisk(ctx, domain.AtRiskCustomerInput{
		Name:         event.Data.CustomerName,
		Email:        event.Data.CustomerEmail,
		RiskCategory: category,
		RiskSeverity: severity,
		AccountValue: event.Data.AmountCents,
	})
	if err != nil {
		return fmt.Errorf("failed to flag customer from billing event: %w", err)
	}

	if snapshot == nil {
		return nil
	}
	customer.PaymentMethod = snapshot
	if err := h.customers.Update(ctx, customer, customer.LastModified); err != nil {
		return fmt.Errorf("failed to attach payment method snapshot: %w", err)
	}
	return nil
}

// applyBillingProfile переносит свежие данные биллинга на запись клиента.
// Снапшот метода оплаты заменяется целиком; категория и срочность риска
// задаются только при постановке на контроль, у клиента уже в статусе
// at-risk зафиксированная причина не перезаписывается.
func (h *RetentionEventHandler) applyBillingProfile(ctx context.Context, customer *domain.Customer, category domain.RiskCategory, severity domain.RiskSeverity, snapshot *domain.PaymentMethod) error {
	changed := false
	if snapshot != nil {
		customer.PaymentMethod = snapshot
		changed = true
	}
	if canFlagAtRisk(customer.AccountStatus) {
		customer.RiskCategory = category
		customer.RiskSeverity = severity
		changed = true
	}
	if !changed {
		return nil
	}

	if err := h.customers.Update(ctx, customer, customer.LastModified); err != nil {
		return fmt.Errorf("failed to update customer from billing event: %w", err)
	}
	return nil
}

// canFlagAtRisk сообщает, допускает ли текущий статус постановку на
// контроль риска. resolved входит сюда: повторная проблема после
// разрешения возвращает клиента в at-risk.
func canFlagAtRisk(status domain.AccountStatus) bool {
	return status == domain.AccountStatusActive || status == domain.AccountStatusResolved
}

// paymentMethodSnapshot собирает снапшот метода оплаты из данных события.
// События без данных карты снапшот не трогают.
func paymentMethodSnapshot(event WebhookEvent) *domain.PaymentMethod {
	d := event.Data
	if d.PaymentMethodID == "" && d.CardLast4 == "" {
		return nil
	}
	return &domain.PaymentMethod{
		ID:             d.PaymentMethodID,
		CardType:       d.CardType,
		LastFourDigits: d.CardLast4,
		ExpiryMonth:    d.CardExpMonth,
		ExpiryYear:     d.CardExpYear,
		Status:         "active",
		FailureCount:   d.FailureCount,
	}
}

// eventDate переводит unix-время события в календарную дату фида
func eventDate(event WebhookEvent) string {
	if event.Created == 0 {
		return ""
	}
	return time.Unix(event.Created, 0).UTC().Format(domain.DateLayout)
}

var _ EventHandler = (*RetentionEventHandler)(nil)
