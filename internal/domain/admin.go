package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minAdminPasswordLength = 8

// AdminUser учетная запись оператора панели удержания. В отличие от
// Customer, запись с отсутствующим обязательным полем бессмысленна,
// поэтому конструктор падает сразу и никогда не возвращает частично
// валидный объект.
type AdminUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAdminUser создает учетную запись оператора. Возвращает описательную
// ошибку при первом же отсутствующем или некорректном поле.
func NewAdminUser(username, email, password string) (*AdminUser, error) {
	if username == "" {
		return nil, fmt.Errorf("admin user requires a username")
	}
	if email == "" {
		return nil, fmt.Errorf("admin user requires an email")
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("invalid admin email format: %s", email)
	}
	if len(password) < minAdminPasswordLength {
		return nil, fmt.Errorf("admin password must be at least %d characters", minAdminPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	return &AdminUser{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword сверяет пароль с сохраненным хешем
func (u *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
