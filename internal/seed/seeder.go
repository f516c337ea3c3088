package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// Seeder наполняет хранилище клиентами. Невалидные записи пропускаются
// с предупреждением, уже существующие не перезаписываются.
type Seeder struct {
	repo repository.CustomerRepository
	log  *logger.Logger
}

// Result итог прогона сидера
type Result struct {
	Created int
	Skipped int
}

// NewSeeder создает новый сидер
func NewSeeder(repo repository.CustomerRepository, log *logger.Logger) *Seeder {
	return &Seeder{
		repo: repo,
		log:  log,
	}
}

// Seed сохраняет переданных клиентов
func (s *Seeder) Seed(ctx context.Context, customers []*domain.Customer) (Result, error) {
	var result Result

	for _, customer := range customers {
		if validation := customer.Validate(); !validation.IsValid {
			s.log.Warnw("Skipping invalid customer", "email", customer.Email, "errors", fmt.Sprintf("%v", validation.Errors))
			result.Skipped++
			continue
		}

		err := s.repo.Create(ctx, customer)
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Debugw("Customer already exists, skipping", "email", customer.Email)
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to seed customer %s: %w", customer.Email, err)
		}

		result.Created++
	}

	s.log.Infow("Seeding finished", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// SeedGenerated генерирует и сохраняет count клиентов
func (s *Seeder) SeedGenerated(ctx context.Context, count int, seed int64) (Result, error) {
	return s.Seed(ctx, NewGenerator(seed).Customers(count))
}

// SeedFromFile читает JSON-файл с массивом записей клиентов и сохраняет их
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var records []domain.CustomerJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return Result{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	customers := make([]*domain.Customer, 0, len(records))
	for _, rec := range records {
		customers = append(customers, domain.FromJSON(rec))
	}

	return s.Seed(ctx, customers)
}
