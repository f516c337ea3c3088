package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AuthHandler обработчик аутентификации операторов
type AuthHandler struct {
	service service.AuthService
	log     *logger.Logger
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(svc service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		log:     log,
	}
}

// LoginRequest запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login выдает JWT по паре логин/пароль
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid login request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.log.Error("Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
