package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTransition попытка недопустимого перехода статуса
var ErrInvalidTransition = errors.New("invalid status transition")

// allowedTransitions таблица допустимых переходов статуса аккаунта.
// churned терминальный статус, исходящих переходов нет.
var allowedTransitions = map[AccountStatus][]AccountStatus{
	AccountStatusActive:   {AccountStatusAtRisk},
	AccountStatusAtRisk:   {AccountStatusResolved, AccountStatusChurned},
	AccountStatusResolved: {AccountStatusAtRisk},
	AccountStatusChurned:  {},
}

// InvalidTransitionError описывает недопустимый переход: что пытались
// сделать и какие переходы легальны из текущего статуса. Это ожидаемое
// бизнес-условие, а не программная ошибка.
type InvalidTransitionError struct {
	From    AccountStatus
	To      AccountStatus
	Allowed []AccountStatus
}

// Error реализует интерфейс error
func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %s to %s (allowed: %s)",
		e.From, e.To, strings.Join(allowed, ", "))
}

// Is проверяет, является ли ошибка ошибкой недопустимого перехода
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// TransitionResult результат успешного перехода статуса
type TransitionResult struct {
	PreviousStatus AccountStatus `json:"previous_status"`
	NewStatus      AccountStatus `json:"new_status"`
	Reason         string        `json:"reason,omitempty"`
	LastModified   time.Time     `json:"last_modified"`
}

// CanTransitionTo сообщает, допустим ли переход в целевой статус из текущего
func (c *Customer) CanTransitionTo(target AccountStatus) bool {
	for _, allowed := range allowedTransitions[c.AccountStatus] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo переводит аккаунт в целевой статус. Недопустимый переход
// возвращает ошибку без побочных эффектов. Успешный переход атомарно
// меняет статус, обновляет lastModified и для терминальных для риска
// статусов (resolved, churned) сбрасывает категорию и срочность риска.
// Других путей изменения статуса аккаунта не существует.
func (c *Customer) TransitionTo(target AccountStatus, reason string) (TransitionResult, error) {
	if !c.CanTransitionTo(target) {
		return TransitionResult{}, &InvalidTransitionError{
			From:    c.AccountStatus,
			To:      target,
			Allowed: allowedTransitions[c.AccountStatus],
		}
	}

	previous := c.AccountStatus
	c.AccountStatus = target
	c.LastModified = time.Now().UTC()

	if target == AccountStatusResolved || target == AccountStatusChurned {
		c.RiskCategory = ""
		c.RiskSeverity = RiskSeverityLow
	}

	return TransitionResult{
		PreviousStatus: previous,
		NewStatus:      target,
		Reason:         reason,
		LastModified:   c.LastModified,
	}, nil
}
