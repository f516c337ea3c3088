package repository

import (
	"context"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// CachedCustomerRepository реализует CustomerRepository с кешированием.
// Ошибки кеша никогда не прерывают основную операцию: хранилище
// остается источником истины.
type CachedCustomerRepository struct {
	repo  CustomerRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedCustomerRepository создает новый репозиторий с кешированием
func NewCachedCustomerRepository(
	repo CustomerRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) CustomerRepository {
	return &CachedCustomerRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetAll возвращает всех клиентов (списки не кешируются)
func (r *CachedCustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	return r.repo.GetAll(ctx)
}

// GetByStatus возвращает клиентов с заданным статусом (списки не кешируются)
func (r *CachedCustomerRepository) GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error) {
	return r.repo.GetByStatus(ctx, status)
}

// GetByEmail возвращает клиента по email (email не является ключом кеша)
func (r *CachedCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.repo.GetByEmail(ctx, email)
}

// GetByID получает клиента по ID (сначала из кеша, потом из БД)
func (r *CachedCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	cached, err := r.cache.GetCachedCustomer(ctx, id)
	if err != nil {
		r.log.Warnw("Error getting customer from cache", "error", err, "customerID", id)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		r.log.Debugw("Customer found in cache", "customerID", id)
		return cached, nil
	}

	customer, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheCustomer(ctx, customer); err != nil {
		r.log.Warnw("Failed to cache customer after fetching", "error", err, "customerID", id)
	}

	return customer, nil
}

// Create сохраняет клиента в БД и кеширует его
func (r *CachedCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if err := r.repo.Create(ctx, customer); err != nil {
		return err
	}

	if err := r.cache.CacheCustomer(ctx, customer); err != nil {
		r.log.Warnw("Failed to cache customer after creation", "error", err, "customerID", customer.ID)
	}

	return nil
}

// Update сохраняет запись клиента целиком и обновляет кеш
func (r *CachedCustomerRepository) Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error {
	if err := r.repo.Update(ctx, customer, expectedLastModified); err != nil {
		return err
	}

	if err := r.cache.CacheCustomer(ctx, customer); err != nil {
		r.log.Warnw("Failed to update customer in cache", "error", err, "customerID", customer.ID)
	}

	return nil
}

// Delete удаляет клиента из БД и инвалидирует кеш
func (r *CachedCustomerRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := r.cache.InvalidateCustomer(ctx, id); err != nil {
		r.log.Warnw("Failed to invalidate customer cache after delete", "error", err, "customerID", id)
	}

	return nil
}
