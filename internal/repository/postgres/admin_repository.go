package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAdminRepository реализация репозитория операторов через PostgreSQL
type PostgresAdminRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresAdminRepository создает новый репозиторий операторов
func NewPostgresAdminRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresAdminRepository {
	return &PostgresAdminRepository{
		db:  db,
		log: log,
	}
}

// Create сохраняет учетную запись оператора
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *domain.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		admin.ID, admin.Username, admin.Email, admin.PasswordHash, admin.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		r.log.Errorw("Failed to create admin user", "error", err, "username", admin.Username)
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// GetByUsername возвращает оператора по имени пользователя
func (r *PostgresAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM admin_users
		WHERE username = $1
	`

	var admin domain.AdminUser
	err := r.db.QueryRow(ctx, query, username).Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.PasswordHash, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &admin, nil
}
