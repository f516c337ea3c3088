package rest

import (
	"github.com/Dhoini/Retention-microservice/internal/api/rest/handlers"
	restmiddleware "github.com/Dhoini/Retention-microservice/internal/api/rest/middleware"
	"github.com/Dhoini/Retention-microservice/internal/middleware"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers обработчики, подключаемые к маршрутизатору
type Handlers struct {
	Customer *handlers.CustomerHandler
	Chat     *handlers.ChatHandler
	Auth     *handlers.AuthHandler
	Webhook  *handlers.WebhookHandler
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(h Handlers, auth *middleware.JWTMiddleware, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(restmiddleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Аутентификация операторов
	r.POST("/auth/login", h.Auth.Login)

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth("retention"))
	{
		customers := v1.Group("/customers")
		{
			customers.GET("", h.Customer.GetCustomers)
			customers.POST("", h.Customer.CreateCustomer)
			customers.GET("/at-risk", h.Customer.GetAtRiskCustomers)
			customers.POST("/at-risk", h.Customer.FlagAtRisk)
			customers.GET("/high-risk", h.Customer.GetHighRiskCustomers)
			customers.GET("/:id", h.Customer.GetCustomer)
			customers.PUT("/:id", h.Customer.UpdateCustomer)
			customers.DELETE("/:id", h.Customer.DeleteCustomer)
			customers.POST("/:id/transition", h.Customer.TransitionCustomer)
			customers.POST("/:id/interventions", h.Customer.RecordIntervention)
			customers.POST("/:id/risk-factors", h.Customer.AddRiskFactor)

			// Чат удержания
			customers.GET("/:id/chat/messages", h.Chat.GetHistory)
			customers.POST("/:id/chat/messages", h.Chat.PostMessage)
			customers.POST("/:id/chat/conversations/:conversationID/close", h.Chat.CloseConversation)
		}
	}

	// Вебхуки на корневом уровне роутера, подпись проверяется внутри
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/billing", h.Webhook.HandleBillingWebhook)
	}

	return r
}
