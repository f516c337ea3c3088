package domain

import (
	"encoding/json"
	"time"
)

// CustomerJSON плоское сериализованное представление клиента. Помимо
// хранимых полей содержит три производных поля (risk_score,
// status_description, requires_intervention), которые вычисляются в
// момент сериализации и никогда не сохраняются как источник истины.
type CustomerJSON struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Phone               string         `json:"phone,omitempty"`
	AccountStatus       AccountStatus  `json:"account_status"`
	RiskCategory        RiskCategory   `json:"risk_category,omitempty"`
	RiskSeverity        RiskSeverity   `json:"risk_severity"`
	LastPaymentDate     string         `json:"last_payment_date,omitempty"`
	CustomerSince       string         `json:"customer_since,omitempty"`
	NextBillingDate     string         `json:"next_billing_date,omitempty"`
	AccountValue        int64          `json:"account_value"`
	LastModified        time.Time      `json:"last_modified"`
	ServiceProvider     string         `json:"service_provider,omitempty"`
	ServiceType         string         `json:"service_type,omitempty"`
	BillingCycle        string         `json:"billing_cycle"`
	PaymentMethod       *PaymentMethod `json:"payment_method,omitempty"`
	RiskFactors         []string       `json:"risk_factors,omitempty"`
	InterventionHistory []Intervention `json:"intervention_history,omitempty"`

	// Производные поля, пересчитываются при каждой сериализации
	RiskScore            int    `json:"risk_score"`
	StatusDescription    string `json:"status_description"`
	RequiresIntervention bool   `json:"requires_intervention"`
}

// ToJSON строит сериализованное представление клиента с производными полями
func (c *Customer) ToJSON() CustomerJSON {
	return CustomerJSON{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Phone:               c.Phone,
		AccountStatus:       c.AccountStatus,
		RiskCategory:        c.RiskCategory,
		RiskSeverity:        c.RiskSeverity,
		LastPaymentDate:     c.LastPaymentDate,
		CustomerSince:       c.CustomerSince,
		NextBillingDate:     c.NextBillingDate,
		AccountValue:        c.AccountValue,
		LastModified:        c.LastModified,
		ServiceProvider:     c.ServiceProvider,
		ServiceType:         c.ServiceType,
		BillingCycle:        c.BillingCycle,
		PaymentMethod:       c.PaymentMethod,
		RiskFactors:         c.RiskFactors,
		InterventionHistory: c.InterventionHistory,

		RiskScore:            c.CalculateRiskScore(),
		StatusDescription:    c.StatusDescription(),
		RequiresIntervention: c.RequiresIntervention(),
	}
}

// FromJSON восстанавливает клиента из сериализованной записи, применяя
// те же значения по умолчанию, что и конструктор. Производные поля
// записи игнорируются: они пересчитываются по запросу.
func FromJSON(rec CustomerJSON) *Customer {
	status := rec.AccountStatus
	if status == "" {
		status = AccountStatusActive
	}
	severity := rec.RiskSeverity
	if severity == "" {
		severity = RiskSeverityLow
	}
	billingCycle := rec.BillingCycle
	if billingCycle == "" {
		billingCycle = DefaultBillingCycle
	}

	return &Customer{
		ID:                  rec.ID,
		Name:                rec.Name,
		Email:               rec.Email,
		Phone:               rec.Phone,
		AccountStatus:       status,
		RiskCategory:        rec.RiskCategory,
		RiskSeverity:        severity,
		LastPaymentDate:     rec.LastPaymentDate,
		CustomerSince:       rec.CustomerSince,
		NextBillingDate:     rec.NextBillingDate,
		AccountValue:        rec.AccountValue,
		LastModified:        rec.LastModified,
		ServiceProvider:     rec.ServiceProvider,
		ServiceType:         rec.ServiceType,
		BillingCycle:        billingCycle,
		PaymentMethod:       rec.PaymentMethod,
		RiskFactors:         rec.RiskFactors,
		InterventionHistory: rec.InterventionHistory,
	}
}

// MarshalCustomer сериализует клиента в JSON
func MarshalCustomer(c *Customer) ([]byte, error) {
	return json.Marshal(c.ToJSON())
}

// UnmarshalCustomer восстанавливает клиента из JSON
func UnmarshalCustomer(data []byte) (*Customer, error) {
	var rec CustomerJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return FromJSON(rec), nil
}
