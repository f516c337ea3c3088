package seed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeeder(t *testing.T) (*Seeder, *repository.InMemoryCustomerRepository) {
	t.Helper()
	log := logger.New(logger.ERROR)
	repo := repository.NewInMemoryCustomerRepository(log)
	return NewSeeder(repo, log), repo
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(42).Customers(10)
	b := NewGenerator(42).Customers(10)

	require.Len(t, a, 10)
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].Email, b[i].Email)
		assert.Equal(t, a[i].RiskCategory, b[i].RiskCategory)
		assert.Equal(t, a[i].AccountValue, b[i].AccountValue)
	}
}

func TestGenerator_ProducesValidCustomers(t *testing.T) {
	for _, customer := range NewGenerator(7).Customers(50) {
		result := customer.Validate()
		assert.True(t, result.IsValid, "generated customer must be valid: %v", result.Errors)
	}
}

func TestSeeder_SeedGenerated(t *testing.T) {
	seeder, repo := newTestSeeder(t)

	result, err := seeder.SeedGenerated(context.Background(), 25, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Created)
	assert.Equal(t, 0, result.Skipped)

	customers, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, 25)
}

func TestSeeder_SkipsInvalidAndDuplicates(t *testing.T) {
	seeder, _ := newTestSeeder(t)

	valid := domain.NewAtRiskCustomer(domain.AtRiskCustomerInput{
		Name:         "Клиент",
		Email:        "seed@example.com",
		RiskCategory: domain.RiskCategoryFailedPayment,
	})
	invalid := domain.NewAtRiskCustomer(domain.AtRiskCustomerInput{
		Name:  "Без категории",
		Email: "invalid@example.com",
	})

	result, err := seeder.Seed(context.Background(), []*domain.Customer{valid, invalid, valid})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Skipped)
}

func TestSeeder_SeedFromFile(t *testing.T) {
	seeder, repo := newTestSeeder(t)

	records := []domain.CustomerJSON{
		{
			ID:              "cus-file-1",
			Name:            "Из файла",
			Email:           "file1@example.com",
			AccountStatus:   "at-risk",
			RiskCategory:    "expiring-card",
			RiskSeverity:    "medium",
			CustomerSince:   "2023-01-15",
			LastPaymentDate: "2025-06-01",
		},
		{
			// Запись без имени будет пропущена
			ID:            "cus-file-2",
			Email:         "file2@example.com",
			AccountStatus: "active",
		},
	}

	data, err := json.Marshal(records)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	result, err := seeder.SeedFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)

	customer, err := repo.GetByID(context.Background(), "cus-file-1")
	require.NoError(t, err)
	assert.Equal(t, "Из файла", customer.Name)
}

func TestSeeder_SeedFromFile_MissingFile(t *testing.T) {
	seeder, _ := newTestSeeder(t)

	_, err := seeder.SeedFromFile(context.Background(), "/nonexistent/customers.json")
	assert.Error(t, err)
}
