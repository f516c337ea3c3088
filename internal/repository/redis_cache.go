package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префиксы ключей для различных типов данных
	customerKeyPrefix = "customer:"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование записей клиентов через Redis.
// Кешируются только хранимые поля: производные (risk_score и прочие)
// пересчитываются после восстановления записи.
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheCustomer кеширует запись клиента в Redis
func (r *RedisCacheRepository) CacheCustomer(ctx context.Context, customer *domain.Customer) error {
	key := customerKeyPrefix + customer.ID

	data, err := domain.MarshalCustomer(customer)
	if err != nil {
		r.log.Errorw("Failed to marshal customer for caching", "error", err, "customerID", customer.ID)
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache customer in Redis", "error", err, "customerID", customer.ID)
		return fmt.Errorf("failed to cache customer: %w", err)
	}

	r.log.Debugw("Customer cached successfully", "customerID", customer.ID)
	return nil
}

// GetCachedCustomer получает запись клиента из кеша. Возвращает nil без
// ошибки, если записи в кеше нет.
func (r *RedisCacheRepository) GetCachedCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	key := customerKeyPrefix + customerID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer from cache: %w", err)
	}

	customer, err := domain.UnmarshalCustomer(data)
	if err != nil {
		r.log.Warnw("Failed to unmarshal cached customer, invalidating", "error", err, "customerID", customerID)
		_ = r.client.Del(ctx, key).Err()
		return nil, nil
	}

	return customer, nil
}

// InvalidateCustomer удаляет запись клиента из кеша
func (r *RedisCacheRepository) InvalidateCustomer(ctx context.Context, customerID string) error {
	key := customerKeyPrefix + customerID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to invalidate customer cache", "error", err, "customerID", customerID)
		return fmt.Errorf("failed to invalidate customer cache: %w", err)
	}

	return nil
}
