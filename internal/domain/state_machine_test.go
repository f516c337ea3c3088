package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAtRiskFixture() *Customer {
	return &Customer{
		ID:            "cus-1",
		Name:          "Anna Petrova",
		Email:         "anna@example.com",
		AccountStatus: AccountStatusAtRisk,
		RiskCategory:  RiskCategoryFailedPayment,
		RiskSeverity:  RiskSeverityHigh,
		BillingCycle:  DefaultBillingCycle,
	}
}

func TestTransitionTable(t *testing.T) {
	statuses := []AccountStatus{
		AccountStatusActive,
		AccountStatusAtRisk,
		AccountStatusResolved,
		AccountStatusChurned,
	}

	legal := map[AccountStatus]map[AccountStatus]bool{
		AccountStatusActive:   {AccountStatusAtRisk: true},
		AccountStatusAtRisk:   {AccountStatusResolved: true, AccountStatusChurned: true},
		AccountStatusResolved: {AccountStatusAtRisk: true},
		AccountStatusChurned:  {},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			c := newAtRiskFixture()
			c.AccountStatus = from

			can := c.CanTransitionTo(to)
			assert.Equal(t, legal[from][to], can, "canTransitionTo(%s -> %s)", from, to)

			_, err := c.TransitionTo(to, "test")
			if can {
				assert.NoError(t, err, "transition %s -> %s", from, to)
			} else {
				assert.Error(t, err, "transition %s -> %s", from, to)
			}
		}
	}
}

func TestTransitionToIllegalIsSideEffectFree(t *testing.T) {
	c := newAtRiskFixture()
	c.AccountStatus = AccountStatusActive
	c.LastModified = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.TransitionTo(AccountStatusResolved, "skip the queue")
	require.Error(t, err)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, AccountStatusActive, invalid.From)
	assert.Equal(t, AccountStatusResolved, invalid.To)
	assert.Equal(t, []AccountStatus{AccountStatusAtRisk}, invalid.Allowed)

	// Состояние не изменилось
	assert.Equal(t, AccountStatusActive, c.AccountStatus)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), c.LastModified)
}

func TestTransitionToResolvedClearsRiskFields(t *testing.T) {
	for _, target := range []AccountStatus{AccountStatusResolved, AccountStatusChurned} {
		c := newAtRiskFixture()

		result, err := c.TransitionTo(target, "payment recovered")
		require.NoError(t, err)

		assert.Equal(t, target, c.AccountStatus)
		assert.Equal(t, RiskCategory(""), c.RiskCategory)
		assert.Equal(t, RiskSeverityLow, c.RiskSeverity)

		assert.Equal(t, AccountStatusAtRisk, result.PreviousStatus)
		assert.Equal(t, target, result.NewStatus)
		assert.Equal(t, "payment recovered", result.Reason)
		assert.Equal(t, c.LastModified, result.LastModified)
		assert.False(t, result.LastModified.IsZero())
	}
}

func TestTransitionToStampsLastModified(t *testing.T) {
	c := newAtRiskFixture()
	c.AccountStatus = AccountStatusActive
	c.LastModified = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := c.TransitionTo(AccountStatusAtRisk, "payment failed twice")
	require.NoError(t, err)
	assert.True(t, result.LastModified.After(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, result.LastModified, c.LastModified)
}

func TestChurnedIsTerminal(t *testing.T) {
	c := newAtRiskFixture()
	c.AccountStatus = AccountStatusChurned

	for _, target := range []AccountStatus{
		AccountStatusActive,
		AccountStatusAtRisk,
		AccountStatusResolved,
		AccountStatusChurned,
	} {
		assert.False(t, c.CanTransitionTo(target), "churned -> %s must be illegal", target)
	}
}
