package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// CustomerHandler обработчик для клиентов
type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

// NewCustomerHandler создает новый обработчик клиентов
func NewCustomerHandler(svc service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: svc,
		log:     log,
	}
}

// FlagAtRiskRequest запрос на постановку клиента на контроль риска
type FlagAtRiskRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	RiskCategory    string `json:"risk_category" binding:"required"`
	RiskSeverity    string `json:"risk_severity,omitempty"`
	AccountValue    int64  `json:"account_value,omitempty"`
	CustomerSince   string `json:"customer_since,omitempty"`
	LastPaymentDate string `json:"last_payment_date,omitempty"`
}

// TransitionRequest запрос на переход статуса аккаунта
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
	Reason       string `json:"reason,omitempty"`
}

// InterventionRequest запрос на запись интервенции
type InterventionRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes,omitempty"`
}

// RiskFactorRequest запрос на добавление фактора риска
type RiskFactorRequest struct {
	Factor string `json:"factor" binding:"required"`
}

// UpdateCustomerRequest запрос на обновление записи клиента целиком.
// ExpectedLastModified содержит токен версии, полученный при чтении записи.
type UpdateCustomerRequest struct {
	Customer             domain.CustomerJSON `json:"customer" binding:"required"`
	ExpectedLastModified time.Time           `json:"expected_last_modified" binding:"required"`
}

// toViews преобразует агрегаты в плоские JSON-представления
func toViews(customers []*domain.Customer) []domain.CustomerJSON {
	views := make([]domain.CustomerJSON, 0, len(customers))
	for _, customer := range customers {
		views = append(views, customer.ToJSON())
	}
	return views
}

// GetCustomers возвращает список клиентов, опционально по статусу
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	var (
		customers []*domain.Customer
		err       error
	)

	if status := c.Query("status"); status != "" {
		customers, err = h.service.GetByStatus(c.Request.Context(), domain.AccountStatus(status))
	} else {
		customers, err = h.service.GetAll(c.Request.Context())
	}

	if err != nil {
		if errors.Is(err, repository.ErrInvalidData) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown account status"})
			return
		}
		h.log.Error("Failed to get customers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get customers"})
		return
	}

	c.JSON(http.StatusOK, toViews(customers))
}

// GetCustomer возвращает клиента по ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id := c.Param("id")

	customer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Warn("Customer not found: %s", id)
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		h.log.Error("Failed to get customer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get customer"})
		return
	}

	c.JSON(http.StatusOK, customer.ToJSON())
}

// GetAtRiskCustomers возвращает клиентов в статусе at-risk
func (h *CustomerHandler) GetAtRiskCustomers(c *gin.Context) {
	customers, err := h.service.GetByStatus(c.Request.Context(), domain.AccountStatusAtRisk)
	if err != nil {
		h.log.Error("Failed to get at-risk customers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get at-risk customers"})
		return
	}

	c.JSON(http.StatusOK, toViews(customers))
}

// GetHighRiskCustomers возвращает клиентов, требующих интервенции,
// по убыванию оценки риска
func (h *CustomerHandler) GetHighRiskCustomers(c *gin.Context) {
	customers, err := h.service.GetHighRisk(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get high risk customers: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get high risk customers"})
		return
	}

	c.JSON(http.StatusOK, toViews(customers))
}

// CreateCustomer создает клиента из полной записи
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var rec domain.CustomerJSON
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := domain.FromJSON(rec)
	if err := h.service.Create(c.Request.Context(), customer); err != nil {
		h.handleWriteError(c, err, customer.ID)
		return
	}

	h.log.Info("Created customer with ID: %s", customer.ID)
	c.JSON(http.StatusCreated, customer.ToJSON())
}

// FlagAtRisk ставит нового клиента на контроль риска
func (h *CustomerHandler) FlagAtRisk(c *gin.Context) {
	var req FlagAtRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.FlagAtRisk(c.Request.Context(), domain.AtRiskCustomerInput{
		Name:            req.Name,
		Email:           req.Email,
		RiskCategory:    domain.RiskCategory(req.RiskCategory),
		RiskSeverity:    domain.RiskSeverity(req.RiskSeverity),
		AccountValue:    req.AccountValue,
		CustomerSince:   req.CustomerSince,
		LastPaymentDate: req.LastPaymentDate,
	})
	if err != nil {
		h.handleWriteError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, customer.ToJSON())
}

// UpdateCustomer обновляет запись клиента целиком
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id := c.Param("id")

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := domain.FromJSON(req.Customer)
	customer.ID = id

	if err := h.service.Update(c.Request.Context(), customer, req.ExpectedLastModified); err != nil {
		h.handleWriteError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, customer.ToJSON())
}

// DeleteCustomer удаляет клиента
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		h.log.Error("Failed to delete customer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	c.Status(http.StatusNoContent)
}

// TransitionCustomer выполняет переход статуса аккаунта.
// Недопустимый переход возвращает 409 со списком допустимых целей.
func (h *CustomerHandler) TransitionCustomer(c *gin.Context) {
	id := c.Param("id")

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := domain.AccountStatus(req.TargetStatus)
	if !target.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown account status: " + req.TargetStatus})
		return
	}

	customer, result, err := h.service.Transition(c.Request.Context(), id, target, req.Reason)
	if err != nil {
		var transitionErr *domain.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":           transitionErr.Error(),
				"current_status":  transitionErr.From,
				"allowed_targets": transitionErr.Allowed,
			})
			return
		}
		h.handleWriteError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":   customer.ToJSON(),
		"transition": result,
	})
}

// RecordIntervention записывает попытку удержания
func (h *CustomerHandler) RecordIntervention(c *gin.Context) {
	id := c.Param("id")

	var req InterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, entry, err := h.service.RecordIntervention(c.Request.Context(), id, req.Outcome, req.Notes)
	if err != nil {
		h.handleWriteError(c, err, id)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer":     customer.ToJSON(),
		"intervention": entry,
	})
}

// AddRiskFactor добавляет фактор риска клиенту
func (h *CustomerHandler) AddRiskFactor(c *gin.Context) {
	id := c.Param("id")

	var req RiskFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.AddRiskFactor(c.Request.Context(), id, req.Factor)
	if err != nil {
		h.handleWriteError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, customer.ToJSON())
}

// handleWriteError отображает ошибки операций записи в HTTP статусы
func (h *CustomerHandler) handleWriteError(c *gin.Context, err error, id string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Customer validation failed",
			"details": validationErr.Errors,
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Customer with this email already exists"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Customer was modified concurrently, reload and retry"})
	case errors.Is(err, repository.ErrInvalidData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
	default:
		h.log.Error("Customer operation failed for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
