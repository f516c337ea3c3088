package service

import (
	"fmt"
	"strings"
)

// ValidationError ошибка валидации профиля клиента. Содержит полный
// список нарушений, накопленных доменной проверкой, а не только первое.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("customer validation failed: %s", strings.Join(e.Errors, "; "))
}
