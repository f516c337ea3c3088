package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Retention-microservice/config"
	"github.com/Dhoini/Retention-microservice/internal/api/rest"
	"github.com/Dhoini/Retention-microservice/internal/api/rest/handlers"
	"github.com/Dhoini/Retention-microservice/internal/integration/billing"
	"github.com/Dhoini/Retention-microservice/internal/kafka"
	"github.com/Dhoini/Retention-microservice/internal/kafka/producer"
	"github.com/Dhoini/Retention-microservice/internal/metrics"
	"github.com/Dhoini/Retention-microservice/internal/middleware"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/repository/postgres"
	"github.com/Dhoini/Retention-microservice/internal/service"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		// Пропускаем ошибку, если .env файл не найден
	}

	// Инициализация логгера
	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Создаем контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	retentionMetrics := metrics.NewRetentionMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Подключение к базе данных
	dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// Репозиторий клиентов, опционально с Redis-кешем
	var customerRepo repository.CustomerRepository = postgres.NewPostgresCustomerRepository(dbPool, log)
	if cfg.Redis.Enabled {
		cache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		customerRepo = repository.NewCachedCustomerRepository(customerRepo, cache, log)
	}

	chatRepo := postgres.NewPostgresChatMessageRepository(dbPool, log)
	adminRepo := postgres.NewPostgresAdminRepository(dbPool, log)

	// Инициализация Kafka продюсера
	var retentionProducer producer.RetentionProducer
	if cfg.Kafka.Enabled {
		kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
		saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

		if err := kafka.EnsureKafkaTopics(kafkaConfig.Brokers, log); err != nil {
			log.Warn("Failed to ensure Kafka topics: %v", err)
		}

		kafkaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}

		retentionProducer = producer.NewKafkaRetentionProducer(kafkaProducer, log)
		defer retentionProducer.Close()
	} else {
		retentionProducer = producer.NewNopProducer(log)
	}

	// Сервисы
	customerService := service.NewCustomerService(customerRepo, retentionProducer, retentionMetrics, log)
	chatService := service.NewChatService(chatRepo, customerService, retentionProducer, log)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authService := service.NewAuthService(adminRepo, []byte(cfg.Auth.JWTSecret), tokenTTL, log)

	// Интеграция с биллинг-провайдером
	billingClient := billing.NewClient(billing.Config{
		APIKey:        cfg.Billing.APIKey,
		WebhookSecret: cfg.Billing.WebhookSecret,
		IsTest:        cfg.Billing.IsTest,
	}, log)
	billingWebhook := billing.NewWebhookHandler(billingClient, log)
	billingEvents := billing.NewRetentionEventHandler(customerService, log)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Middleware аутентификации
	jwtMiddleware := middleware.NewJWTMiddleware(cfg, log, &middleware.DefaultTokenValidator{
		Secret: []byte(cfg.Auth.JWTSecret),
	})

	// Настройка маршрутизатора
	router := rest.SetupRouter(rest.Handlers{
		Customer: handlers.NewCustomerHandler(customerService, log),
		Chat:     handlers.NewChatHandler(chatService, log),
		Auth:     handlers.NewAuthHandler(authService, log),
		Webhook:  handlers.NewWebhookHandler(billingWebhook, billingEvents, log),
	}, jwtMiddleware, promRegistry, log)

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	// Запуск сервера в горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Останавливаем сервер
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
