package billing

import (
	"github.com/Dhoini/Retention-microservice/pkg/logger"
)

// Client представляет клиент для работы с API биллинг-провайдера
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	log           *logger.Logger
}

// Config конфигурация для клиента биллинг-провайдера
type Config struct {
	APIKey        string
	WebhookSecret string
	IsTest        bool
}

// NewClient создает новый клиент биллинг-провайдера
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := "https://api.billing.example.com/v1"
	if cfg.IsTest {
		baseURL = "https://api.billing.example.com/v1/test"
	}

	return &Client{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		log:           log,
	}
}

// GetBaseURL возвращает базовый URL API биллинг-провайдера
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// GetAPIKey возвращает API ключ
func (c *Client) GetAPIKey() string {
	return c.apiKey
}

// GetWebhookSecret возвращает секрет для верификации вебхуков
func (c *Client) GetWebhookSecret() string {
	return c.webhookSecret
}
