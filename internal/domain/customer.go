package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus статус аккаунта клиента
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusAtRisk   AccountStatus = "at-risk"
	AccountStatusResolved AccountStatus = "resolved"
	AccountStatusChurned  AccountStatus = "churned"
)

// IsValid проверяет, что статус входит в множество допустимых значений
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusAtRisk, AccountStatusResolved, AccountStatusChurned:
		return true
	}
	return false
}

// RiskCategory классифицированная причина риска. Пустое значение означает,
// что категория не задана.
type RiskCategory string

const (
	RiskCategoryExpiringCard     RiskCategory = "expiring-card"
	RiskCategoryFailedPayment    RiskCategory = "failed-payment"
	RiskCategoryMultipleFailures RiskCategory = "multiple-failures"
)

// IsValid проверяет, что категория входит в множество допустимых значений
func (c RiskCategory) IsValid() bool {
	switch c {
	case RiskCategoryExpiringCard, RiskCategoryFailedPayment, RiskCategoryMultipleFailures:
		return true
	}
	return false
}

// RiskSeverity четырехуровневая шкала срочности риска
type RiskSeverity string

const (
	RiskSeverityLow      RiskSeverity = "low"
	RiskSeverityMedium   RiskSeverity = "medium"
	RiskSeverityHigh     RiskSeverity = "high"
	RiskSeverityCritical RiskSeverity = "critical"
)

// IsValid проверяет, что уровень срочности входит в множество допустимых значений
func (s RiskSeverity) IsValid() bool {
	switch s {
	case RiskSeverityLow, RiskSeverityMedium, RiskSeverityHigh, RiskSeverityCritical:
		return true
	}
	return false
}

// DefaultBillingCycle платежный цикл по умолчанию
const DefaultBillingCycle = "monthly"

// DateLayout формат календарных дат, приходящих из биллинговых фидов
const DateLayout = "2006-01-02"

// PaymentMethod снапшот метода оплаты клиента. Принадлежит Customer и
// заменяется целиком, частичных мутаций нет.
type PaymentMethod struct {
	ID              string `json:"id"`
	CardType        string `json:"card_type"`
	LastFourDigits  string `json:"last_four_digits"`
	ExpiryMonth     int    `json:"expiry_month"`
	ExpiryYear      int    `json:"expiry_year"`
	Status          string `json:"status"`
	FailureCount    int    `json:"failure_count"`
	LastFailureDate string `json:"last_failure_date,omitempty"`
	LastSuccessDate string `json:"last_success_date,omitempty"`
}

// Intervention запись о попытке удержания клиента
type Intervention struct {
	Date    time.Time `json:"date"`
	Outcome string    `json:"outcome"`
	Notes   string    `json:"notes,omitempty"`
}

// Customer агрегат клиента. Все изменения статуса проходят через
// TransitionTo, история интервенций и факторы риска только дополняются.
type Customer struct {
	ID                  string
	Name                string
	Email               string
	Phone               string
	AccountStatus       AccountStatus
	RiskCategory        RiskCategory
	RiskSeverity        RiskSeverity
	LastPaymentDate     string
	CustomerSince       string
	NextBillingDate     string
	AccountValue        int64 // в минорных единицах валюты (центах)
	LastModified        time.Time
	ServiceProvider     string
	ServiceType         string
	BillingCycle        string
	PaymentMethod       *PaymentMethod
	RiskFactors         []string
	InterventionHistory []Intervention
}

// AtRiskCustomerInput параметры фабрики клиента в статусе at-risk
type AtRiskCustomerInput struct {
	Name            string
	Email           string
	RiskCategory    RiskCategory
	AccountValue    int64
	RiskSeverity    RiskSeverity
	CustomerSince   string
	LastPaymentDate string
}

// NewAtRiskCustomer создает нового клиента сразу в статусе at-risk.
// Используется потоками интейка, которые начинаются с обнаруженного
// сигнала риска, а не с существующей записи.
func NewAtRiskCustomer(in AtRiskCustomerInput) *Customer {
	severity := in.RiskSeverity
	if severity == "" {
		severity = RiskSeverityLow
	}

	return &Customer{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Email:           in.Email,
		AccountStatus:   AccountStatusAtRisk,
		RiskCategory:    in.RiskCategory,
		RiskSeverity:    severity,
		AccountValue:    in.AccountValue,
		CustomerSince:   in.CustomerSince,
		LastPaymentDate: in.LastPaymentDate,
		BillingCycle:    DefaultBillingCycle,
		LastModified:    time.Now().UTC(),
	}
}

// RecordIntervention добавляет запись о попытке удержания в историю.
// Записи никогда не обновляются и не удаляются. Неизвестные значения
// outcome принимаются и сохраняются как есть.
func (c *Customer) RecordIntervention(outcome, notes string) Intervention {
	entry := Intervention{
		Date:    time.Now().UTC(),
		Outcome: outcome,
		Notes:   notes,
	}
	c.InterventionHistory = append(c.InterventionHistory, entry)
	c.LastModified = time.Now().UTC()
	return entry
}

// AddRiskFactor добавляет индикатор риска. Для скоринга важно только
// количество факторов, порядок не влияет.
func (c *Customer) AddRiskFactor(factor string) {
	c.RiskFactors = append(c.RiskFactors, factor)
	c.LastModified = time.Now().UTC()
}

// Clone возвращает глубокую копию агрегата
func (c *Customer) Clone() *Customer {
	clone := *c
	if c.PaymentMethod != nil {
		pm := *c.PaymentMethod
		clone.PaymentMethod = &pm
	}
	if c.RiskFactors != nil {
		clone.RiskFactors = append([]string(nil), c.RiskFactors...)
	}
	if c.InterventionHistory != nil {
		clone.InterventionHistory = append([]Intervention(nil), c.InterventionHistory...)
	}
	return &clone
}
