package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `
	id, name, email, phone,
	account_status, COALESCE(risk_category, ''), risk_severity,
	COALESCE(last_payment_date, ''), COALESCE(customer_since, ''), COALESCE(next_billing_date, ''),
	account_value, last_modified,
	service_provider, service_type, billing_cycle,
	payment_method, risk_factors, intervention_history
`

// PostgresCustomerRepository реализация репозитория клиентов через PostgreSQL.
// Запись клиента сохраняется целиком; снапшот метода оплаты, факторы риска
// и история интервенций хранятся как jsonb. Производные поля (risk_score и
// прочие) в схеме отсутствуют намеренно: это представление, а не хранимая истина.
type PostgresCustomerRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresCustomerRepository создает новый репозиторий клиентов через PostgreSQL
func NewPostgresCustomerRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		db:  db,
		log: log,
	}
}

// GetAll возвращает всех клиентов
func (r *PostgresCustomerRepository) GetAll(ctx context.Context) ([]*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY last_modified DESC`, customerColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// GetByStatus возвращает клиентов с заданным статусом аккаунта
func (r *PostgresCustomerRepository) GetByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE account_status = $1 ORDER BY last_modified DESC`, customerColumns)

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query customers by status: %w", err)
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// GetByID возвращает клиента по ID
func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

// GetByEmail возвращает клиента по email
func (r *PostgresCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE email = $1`, customerColumns)

	customer, err := scanCustomer(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer by email: %w", err)
	}

	return customer, nil
}

// Create сохраняет нового клиента
func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	paymentMethod, riskFactors, interventions, err := marshalAggregateParts(customer)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (
			id, name, email, phone,
			account_status, risk_category, risk_severity,
			last_payment_date, customer_since, next_billing_date,
			account_value, last_modified,
			service_provider, service_type, billing_cycle,
			payment_method, risk_factors, intervention_history
		) VALUES (
			$1, $2, $3, $4,
			$5, NULLIF($6, ''), $7,
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
			$11, $12,
			$13, $14, $15,
			$16, $17, $18
		)
	`

	_, err = r.db.Exec(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Phone,
		string(customer.AccountStatus), string(customer.RiskCategory), string(customer.RiskSeverity),
		customer.LastPaymentDate, customer.CustomerSince, customer.NextBillingDate,
		customer.AccountValue, customer.LastModified,
		customer.ServiceProvider, customer.ServiceType, customer.BillingCycle,
		paymentMethod, riskFactors, interventions,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		r.log.Errorw("Failed to create customer", "error", err, "customerID", customer.ID)
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Update сохраняет запись клиента целиком. last_modified на момент загрузки
// выступает токеном версии: при несовпадении возвращается ErrConflict.
func (r *PostgresCustomerRepository) Update(ctx context.Context, customer *domain.Customer, expectedLastModified time.Time) error {
	paymentMethod, riskFactors, interventions, err := marshalAggregateParts(customer)
	if err != nil {
		return err
	}

	query := `
		UPDATE customers SET
			name = $2, email = $3, phone = $4,
			account_status = $5, risk_category = NULLIF($6, ''), risk_severity = $7,
			last_payment_date = NULLIF($8, ''), customer_since = NULLIF($9, ''), next_billing_date = NULLIF($10, ''),
			account_value = $11, last_modified = $12,
			service_provider = $13, service_type = $14, billing_cycle = $15,
			payment_method = $16, risk_factors = $17, intervention_history = $18
		WHERE id = $1 AND last_modified = $19
	`

	result, err := r.db.Exec(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Phone,
		string(customer.AccountStatus), string(customer.RiskCategory), string(customer.RiskSeverity),
		customer.LastPaymentDate, customer.CustomerSince, customer.NextBillingDate,
		customer.AccountValue, customer.LastModified,
		customer.ServiceProvider, customer.ServiceType, customer.BillingCycle,
		paymentMethod, riskFactors, interventions,
		expectedLastModified,
	)
	if err != nil {
		r.log.Errorw("Failed to update customer", "error", err, "customerID", customer.ID)
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Либо записи нет, либо не совпал токен версии
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, customer.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check customer existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}

// Delete удаляет клиента
func (r *PostgresCustomerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.log.Errorw("Failed to delete customer", "error", err, "customerID", id)
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// marshalAggregateParts сериализует jsonb-части агрегата
func marshalAggregateParts(customer *domain.Customer) ([]byte, []byte, []byte, error) {
	var paymentMethod []byte
	if customer.PaymentMethod != nil {
		data, err := json.Marshal(customer.PaymentMethod)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal payment method: %w", err)
		}
		paymentMethod = data
	}

	riskFactors, err := json.Marshal(customer.RiskFactors)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal risk factors: %w", err)
	}

	interventions, err := json.Marshal(customer.InterventionHistory)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal intervention history: %w", err)
	}

	return paymentMethod, riskFactors, interventions, nil
}

// scanCustomer читает одну строку в агрегат клиента
func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		customer           domain.Customer
		status             string
		category           string
		severity           string
		paymentMethodBytes []byte
		riskFactorBytes    []byte
		interventionBytes  []byte
	)

	err := row.Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&status, &category, &severity,
		&customer.LastPaymentDate, &customer.CustomerSince, &customer.NextBillingDate,
		&customer.AccountValue, &customer.LastModified,
		&customer.ServiceProvider, &customer.ServiceType, &customer.BillingCycle,
		&paymentMethodBytes, &riskFactorBytes, &interventionBytes,
	)
	if err != nil {
		return nil, err
	}

	customer.AccountStatus = domain.AccountStatus(status)
	customer.RiskCategory = domain.RiskCategory(category)
	customer.RiskSeverity = domain.RiskSeverity(severity)

	if len(paymentMethodBytes) > 0 {
		var pm domain.PaymentMethod
		if err := json.Unmarshal(paymentMethodBytes, &pm); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment method: %w", err)
		}
		customer.PaymentMethod = &pm
	}
	if len(riskFactorBytes) > 0 {
		if err := json.Unmarshal(riskFactorBytes, &customer.RiskFactors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal risk factors: %w", err)
		}
	}
	if len(interventionBytes) > 0 {
		if err := json.Unmarshal(interventionBytes, &customer.InterventionHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intervention history: %w", err)
		}
	}

	return &customer, nil
}

// collectCustomers читает все строки результата
func collectCustomers(rows pgx.Rows) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}
