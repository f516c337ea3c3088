package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atRisk(id string, category RiskCategory, severity RiskSeverity) *Customer {
	return &Customer{
		ID:            id,
		Name:          "Customer " + id,
		Email:         id + "@example.com",
		AccountStatus: AccountStatusAtRisk,
		RiskCategory:  category,
		RiskSeverity:  severity,
	}
}

func TestFindHighRiskCustomersFiltersAndSorts(t *testing.T) {
	healthy := validCustomer()
	healthy.AccountStatus = AccountStatusActive
	healthy.RiskCategory = ""

	low := atRisk("low", RiskCategoryExpiringCard, RiskSeverityLow)            // 28
	medium := atRisk("medium", RiskCategoryFailedPayment, RiskSeverityMedium)  // 70
	critical := atRisk("crit", RiskCategoryMultipleFailures, RiskSeverityHigh) // 119 -> 100
	noCategory := atRisk("nocat", "", RiskSeverityCritical)

	result := FindHighRiskCustomers([]*Customer{healthy, low, critical, noCategory, medium})

	require.Len(t, result, 3)
	assert.Equal(t, "crit", result[0].ID)
	assert.Equal(t, "medium", result[1].ID)
	assert.Equal(t, "low", result[2].ID)

	for _, c := range result {
		assert.True(t, c.RequiresIntervention())
	}
}

func TestFindHighRiskCustomersIsStableOnTies(t *testing.T) {
	first := atRisk("first", RiskCategoryFailedPayment, RiskSeverityMedium)
	second := atRisk("second", RiskCategoryFailedPayment, RiskSeverityMedium)
	third := atRisk("third", RiskCategoryFailedPayment, RiskSeverityMedium)
	require.Equal(t, first.CalculateRiskScore(), second.CalculateRiskScore())
	require.Equal(t, second.CalculateRiskScore(), third.CalculateRiskScore())

	result := FindHighRiskCustomers([]*Customer{first, second, third})

	require.Len(t, result, 3)
	assert.Equal(t, "first", result[0].ID)
	assert.Equal(t, "second", result[1].ID)
	assert.Equal(t, "third", result[2].ID)
}

func TestFindHighRiskCustomersDoesNotMutateInput(t *testing.T) {
	a := atRisk("a", RiskCategoryExpiringCard, RiskSeverityLow)
	b := atRisk("b", RiskCategoryMultipleFailures, RiskSeverityCritical)
	input := []*Customer{a, b}

	_ = FindHighRiskCustomers(input)

	assert.Equal(t, "a", input[0].ID)
	assert.Equal(t, "b", input[1].ID)
}

func TestFindHighRiskCustomersEmptyInput(t *testing.T) {
	assert.Empty(t, FindHighRiskCustomers(nil))
	assert.Empty(t, FindHighRiskCustomers([]*Customer{}))
}
