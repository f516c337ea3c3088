package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// CustomerRepository интерфейс для работы с записями клиентов.
// Контракт ядра: загрузка по идентификатору и сохранение записи целиком.
// Update принимает токен версии (last_modified на момент загрузки) для
// оптимистичного контроля конкурентности: при несовпадении возвращается
// ErrConflict, и вызывающая сторона повторяет цикл load-mutate-save.
type CustomerRepository interface {
	GetAll(ctx context.Context) ([]*domain.Customer, error)
	GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error
	Delete(ctx context.Context, id string) error
}

// InMemoryCustomerRepository реализация репозитория в памяти.
// Используется в тестах и в сухих прогонах сидера.
type InMemoryCustomerRepository struct {
	customers map[string]*domain.Customer
	mutex     sync.RWMutex
	log       *logger.Logger
}

// NewInMemoryCustomerRepository создает новый репозиторий клиентов в памяти
func NewInMemoryCustomerRepository(log *logger.Logger) *InMemoryCustomerRepository {
	return &InMemoryCustomerRepository{
		customers: make(map[string]*domain.Customer),
		log:       log,
	}
}

// GetAll возвращает всех клиентов
func (r *InMemoryCustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	customers := make([]*domain.Customer, 0, len(r.customers))
	for _, customer := range r.customers {
		customers = append(customers, customer.Clone())
	}

	return customers, nil
}

// GetByStatus возвращает клиентов с заданным статусом аккаунта
func (r *InMemoryCustomerRepository) GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var customers []*domain.Customer
	for _, customer := range r.customers {
		if customer.AccountStatus == status {
			customers = append(customers, customer.Clone())
		}
	}

	return customers, nil
}

// GetByID возвращает клиента по ID
func (r *InMemoryCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	customer, exists := r.customers[id]
	if !exists {
		return nil, ErrNotFound
	}

	return customer.Clone(), nil
}

// GetByEmail возвращает клиента по email
func (r *InMemoryCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, customer := range r.customers {
		if customer.Email == email {
			return customer.Clone(), nil
		}
	}

	return nil, ErrNotFound
}

// Create сохраняет нового клиента
func (r *InMemoryCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.customers[customer.ID]; exists {
		return ErrDuplicate
	}

	// Проверка на уникальность email
	for _, c := range r.customers {
		if c.Email == customer.Email {
			return ErrDuplicate
		}
	}

	r.customers[customer.ID] = customer.Clone()

	return nil
}

// Update сохраняет запись клиента целиком с оптимистичной проверкой версии
func (r *InMemoryCustomerRepository) Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.customers[customer.ID]
	if !exists {
		return ErrNotFound
	}

	if !existing.LastModified.Equal(expectedLastModified) {
		return ErrConflict
	}

	r.customers[customer.ID] = customer.Clone()

	return nil
}

// Delete удаляет клиента
func (r *InMemoryCustomerRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.customers[id]; !exists {
		return ErrNotFound
	}

	delete(r.customers, id)

	return nil
}
