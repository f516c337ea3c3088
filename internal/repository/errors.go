package repository

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate дубликат записи
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidData неверные данные
	ErrInvalidData = errors.New("invalid data")

	// ErrConflict запись изменена конкурентно (не совпал токен версии last_modified)
	ErrConflict = errors.New("concurrent modification detected")
)
