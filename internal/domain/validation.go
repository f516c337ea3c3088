package domain

import (
	"fmt"
	"regexp"
	"time"
)

// emailPattern минимальная проверка формы local@domain.tld
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult результат проверки записи клиента. Все нарушения
// собираются вместе, чтобы UI мог показать их одним списком.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate проверяет структурную и бизнес-корректность записи клиента.
// Чистая функция текущего состояния: ничего не мутирует и не паникует,
// все нарушения накапливаются в результате. Порядок проверок влияет
// только на порядок сообщений.
func (c *Customer) Validate() ValidationResult {
	var errs []string

	if c.ID == "" {
		errs = append(errs, "customer ID is required")
	}
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.Email == "" {
		errs = append(errs, "email is required")
	} else if !emailPattern.MatchString(c.Email) {
		errs = append(errs, fmt.Sprintf("invalid email format: %s", c.Email))
	}
	if !c.AccountStatus.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid account status: %s", c.AccountStatus))
	}
	if c.AccountStatus == AccountStatusAtRisk {
		if c.RiskCategory == "" {
			errs = append(errs, "risk category is required for at-risk accounts")
		} else if !c.RiskCategory.IsValid() {
			errs = append(errs, fmt.Sprintf("invalid risk category: %s", c.RiskCategory))
		}
	}
	if !c.RiskSeverity.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid risk severity: %s", c.RiskSeverity))
	}
	if c.AccountValue < 0 {
		errs = append(errs, "account value cannot be negative")
	}
	if c.LastPaymentDate != "" && !isValidDate(c.LastPaymentDate) {
		errs = append(errs, fmt.Sprintf("invalid last payment date: %s", c.LastPaymentDate))
	}
	if c.CustomerSince != "" && !isValidDate(c.CustomerSince) {
		errs = append(errs, fmt.Sprintf("invalid customer since date: %s", c.CustomerSince))
	}

	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// isValidDate проверяет, что строка разбирается как календарная дата
func isValidDate(value string) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}
