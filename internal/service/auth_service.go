package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/middleware"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredentials неверная пара логин/пароль
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminRepository хранилище административных учетных записей
type AdminRepository interface {
	Create(ctx context.Context, user *domain.AdminUser) error
	GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
}

// AuthService интерфейс сервиса аутентификации операторов удержания
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (*domain.AdminUser, error)
}

type authService struct {
	admins   AdminRepository
	secret   []byte
	tokenTTL time.Duration
	log      *logger.Logger
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(admins AdminRepository, secret []byte, tokenTTL time.Duration, log *logger.Logger) AuthService {
	return &authService{
		admins:   admins,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Login проверяет учетные данные и выдает подписанный JWT со scope retention.
// Несуществующий пользователь и неверный пароль неразличимы для вызывающего.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Login attempt for unknown user: %s", username)
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !user.CheckPassword(password) {
		s.log.Warn("Invalid password for user: %s", username)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := middleware.TokenClaims{
		UserEmail: user.Email,
		Scope:     "retention",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error("Failed to sign token: %v", err)
		return "", err
	}

	s.log.Infow("User logged in", "username", username)
	return signed, nil
}

// Register создает административную учетную запись
func (s *authService) Register(ctx context.Context, username, email, password string) (*domain.AdminUser, error) {
	user, err := domain.NewAdminUser(username, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.admins.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infow("Admin user registered", "username", username)
	return user, nil
}
