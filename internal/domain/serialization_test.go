package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONComputesDerivedFields(t *testing.T) {
	c := validCustomer()
	c.PaymentMethod = &PaymentMethod{
		ID:             "pm-1",
		CardType:       "visa",
		LastFourDigits: "4242",
		ExpiryMonth:    11,
		ExpiryYear:     2026,
		Status:         "expiring",
		FailureCount:   1,
	}
	c.RiskFactors = []string{"card expires next cycle"}

	view := c.ToJSON()

	assert.Equal(t, c.CalculateRiskScore(), view.RiskScore)
	assert.Equal(t, c.StatusDescription(), view.StatusDescription)
	assert.Equal(t, c.RequiresIntervention(), view.RequiresIntervention)
}

func TestRoundTripReproducesStoredFields(t *testing.T) {
	original := validCustomer()
	original.Phone = "+7 900 000-00-00"
	original.NextBillingDate = "2025-07-01"
	original.ServiceProvider = "StreamCo"
	original.ServiceType = "video"
	original.LastModified = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	original.PaymentMethod = &PaymentMethod{
		ID:              "pm-7",
		CardType:        "mastercard",
		LastFourDigits:  "1881",
		ExpiryMonth:     3,
		ExpiryYear:      2027,
		Status:          "active",
		FailureCount:    2,
		LastFailureDate: "2025-06-10",
		LastSuccessDate: "2025-05-10",
	}
	original.RiskFactors = []string{"two bounced charges"}
	original.InterventionHistory = []Intervention{
		{Date: time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), Outcome: "no-answer", Notes: "left voicemail"},
	}

	data, err := MarshalCustomer(original)
	require.NoError(t, err)

	restored, err := UnmarshalCustomer(data)
	require.NoError(t, err)

	assert.Equal(t, original, restored)
}

func TestMarshaledJSONContainsDerivedFields(t *testing.T) {
	data, err := MarshalCustomer(validCustomer())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "risk_score")
	assert.Contains(t, raw, "status_description")
	assert.Contains(t, raw, "requires_intervention")
}

func TestFromJSONAppliesDefaults(t *testing.T) {
	rec := CustomerJSON{
		ID:    "cus-new",
		Name:  "Fresh Import",
		Email: "fresh@example.com",
	}

	c := FromJSON(rec)

	assert.Equal(t, AccountStatusActive, c.AccountStatus)
	assert.Equal(t, RiskSeverityLow, c.RiskSeverity)
	assert.Equal(t, DefaultBillingCycle, c.BillingCycle)
}

func TestFromJSONIgnoresDerivedFields(t *testing.T) {
	rec := validCustomer().ToJSON()
	// Производные поля в записи ни на что не влияют
	rec.RiskScore = 1
	rec.StatusDescription = "tampered"
	rec.RequiresIntervention = false

	c := FromJSON(rec)

	assert.Equal(t, validCustomer().CalculateRiskScore(), c.CalculateRiskScore())
	assert.Equal(t, validCustomer().StatusDescription(), c.StatusDescription())
	assert.True(t, c.RequiresIntervention())
}
