package domain

import (
	"fmt"
	"math"
)

// Базовые баллы по категориям риска
const (
	baseScoreMultipleFailures = 85
	baseScoreFailedPayment    = 70
	baseScoreExpiringCard     = 40
	baseScoreUnknownCategory  = 20
)

// Ограничения бонусов
const (
	maxValueBonus      = 25
	maxFailureBonus    = 15
	maxRiskFactorBonus = 10
)

// RequiresIntervention сообщает, нуждается ли клиент во вмешательстве.
// Инвариант стейт-машины гарантирует категорию у at-risk аккаунтов,
// но проверка выполняется независимо.
func (c *Customer) RequiresIntervention() bool {
	return c.AccountStatus == AccountStatusAtRisk && c.RiskCategory != ""
}

// CalculateRiskScore вычисляет приоритет вмешательства в диапазоне [0, 100].
// Производное представление: пересчитывается при каждом вызове и никогда
// не сохраняется на сущности. Нераспознанная категория или срочность,
// просочившаяся мимо валидации, получает запасные значения (база 20,
// множитель 1.0) вместо паники.
func (c *Customer) CalculateRiskScore() int {
	if c.AccountStatus != AccountStatusAtRisk {
		return 0
	}

	var base float64
	switch c.RiskCategory {
	case RiskCategoryMultipleFailures:
		base = baseScoreMultipleFailures
	case RiskCategoryFailedPayment:
		base = baseScoreFailedPayment
	case RiskCategoryExpiringCard:
		base = baseScoreExpiringCard
	default:
		base = baseScoreUnknownCategory
	}

	var multiplier float64
	switch c.RiskSeverity {
	case RiskSeverityLow:
		multiplier = 0.7
	case RiskSeverityMedium:
		multiplier = 1.0
	case RiskSeverityHigh:
		multiplier = 1.4
	case RiskSeverityCritical:
		multiplier = 1.8
	default:
		multiplier = 1.0
	}

	valueBonus := math.Min(float64(c.AccountValue)/10000, maxValueBonus)

	var failureBonus float64
	if c.PaymentMethod != nil {
		failureBonus = math.Min(float64(c.PaymentMethod.FailureCount)*5, maxFailureBonus)
	}

	riskFactorBonus := math.Min(float64(len(c.RiskFactors))*2, maxRiskFactorBonus)

	score := math.Min(100, base*multiplier+valueBonus+failureBonus+riskFactorBonus)
	return int(math.Round(score))
}

// StatusDescription возвращает человекочитаемое описание статуса аккаунта
func (c *Customer) StatusDescription() string {
	switch c.AccountStatus {
	case AccountStatusActive:
		return "Account in good standing"
	case AccountStatusAtRisk:
		category := "unknown issue"
		if c.RiskCategory != "" {
			category = string(c.RiskCategory)
		}
		return fmt.Sprintf("At risk: %s", category)
	case AccountStatusResolved:
		return "Payment issue resolved"
	case AccountStatusChurned:
		return "Customer churned"
	default:
		return fmt.Sprintf("Unknown status: %s", c.AccountStatus)
	}
}
