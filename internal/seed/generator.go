package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Dhoini/Retention-microservice/internal/domain"
)

var firstNames = []string{
	"Алексей", "Мария", "Иван", "Ольга", "Дмитрий",
	"Елена", "Сергей", "Анна", "Павел", "Наталья",
}

var lastNames = []string{
	"Иванов", "Петрова", "Сидоров", "Кузнецова", "Смирнов",
	"Попова", "Волков", "Соколова", "Морозов", "Лебедева",
}

var categories = []domain.RiskCategory{
	domain.RiskCategoryExpiringCard,
	domain.RiskCategoryFailedPayment,
	domain.RiskCategoryMultipleFailures,
}

var severities = []domain.RiskSeverity{
	domain.RiskSeverityLow,
	domain.RiskSeverityMedium,
	domain.RiskSeverityHigh,
	domain.RiskSeverityCritical,
}

var providers = []string{"CloudStream", "DataVault", "StreamFlix", "NetSecure"}
var serviceTypes = []string{"video-streaming", "cloud-storage", "vpn", "music"}

// Generator генерирует правдоподобных клиентов для наполнения стенда
type Generator struct {
	rng *rand.Rand
}

// NewGenerator создает генератор с заданным зерном.
// Одинаковое зерно дает одинаковый набор клиентов.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Customer генерирует одного клиента в статусе at-risk
func (g *Generator) Customer(index int) *domain.Customer {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]

	customer := domain.NewAtRiskCustomer(domain.AtRiskCustomerInput{
		Name:            fmt.Sprintf("%s %s", first, last),
		Email:           fmt.Sprintf("customer%d@example.com", index),
		RiskCategory:    categories[g.rng.Intn(len(categories))],
		RiskSeverity:    severities[g.rng.Intn(len(severities))],
		AccountValue:    int64(g.rng.Intn(500)+10) * 1000,
		CustomerSince:   g.pastDate(4 * 365),
		LastPaymentDate: g.pastDate(90),
	})

	customer.ServiceProvider = providers[g.rng.Intn(len(providers))]
	customer.ServiceType = serviceTypes[g.rng.Intn(len(serviceTypes))]
	customer.NextBillingDate = g.futureDate(30)

	if g.rng.Intn(2) == 0 {
		customer.PaymentMethod = &domain.PaymentMethod{
			ID:             fmt.Sprintf("pm-%06d", g.rng.Intn(1000000)),
			CardType:       "visa",
			LastFourDigits: fmt.Sprintf("%04d", g.rng.Intn(10000)),
			ExpiryMonth:    g.rng.Intn(12) + 1,
			ExpiryYear:     time.Now().Year() + g.rng.Intn(3),
			Status:         "active",
			FailureCount:   g.rng.Intn(4),
		}
	}

	return customer
}

// Customers генерирует count клиентов
func (g *Generator) Customers(count int) []*domain.Customer {
	customers := make([]*domain.Customer, 0, count)
	for i := 0; i < count; i++ {
		customers = append(customers, g.Customer(i+1))
	}
	return customers
}

func (g *Generator) pastDate(maxDaysAgo int) string {
	days := g.rng.Intn(maxDaysAgo) + 1
	return time.Now().AddDate(0, 0, -days).Format(domain.DateLayout)
}

func (g *Generator) futureDate(maxDaysAhead int) string {
	days := g.rng.Intn(maxDaysAhead) + 1
	return time.Now().AddDate(0, 0, days).Format(domain.DateLayout)
}
