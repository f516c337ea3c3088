package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Dhoini/Retention-microservice/config"
	"github.com/Dhoini/Retention-microservice/internal/repository"
	"github.com/Dhoini/Retention-microservice/internal/repository/postgres"
	"github.com/Dhoini/Retention-microservice/internal/seed"
	"github.com/Dhoini/Retention-microservice/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	count := flag.Int("count", 50, "количество генерируемых клиентов")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "зерно генератора")
	file := flag.String("file", "", "путь к JSON-файлу с записями клиентов")
	dryRun := flag.Bool("dry-run", false, "не записывать в базу, только проверить данные")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		// .env файл необязателен
	}

	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log := logger.New(logLevel)

	ctx := context.Background()

	var repo repository.CustomerRepository
	if *dryRun {
		log.Info("Dry run: using in-memory repository")
		repo = repository.NewInMemoryCustomerRepository(log)
	} else {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("Failed to load configuration: %v", err)
		}

		dbPool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()

		repo = postgres.NewPostgresCustomerRepository(dbPool, log)
	}

	seeder := seed.NewSeeder(repo, log)

	var (
		result seed.Result
		err    error
	)
	if *file != "" {
		result, err = seeder.SeedFromFile(ctx, *file)
	} else {
		result, err = seeder.SeedGenerated(ctx, *count, *seedValue)
	}
	if err != nil {
		log.Fatal("Seeding failed: %v", err)
	}

	log.Info("Seeded %d customers, skipped %d", result.Created, result.Skipped)
}
