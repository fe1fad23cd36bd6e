package main

import (
	"context"
	"log"
	"time"

	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/repository"
	"tenant-onboarding-backend/pkg/auth"
	"tenant-onboarding-backend/pkg/config"
	"tenant-onboarding-backend/pkg/logger"
	"tenant-onboarding-backend/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	agentRepo := repository.NewAgentRepository(db, appLogger)
	accountRepo := repository.NewBankAccountRepository(db, appLogger)
	quotationRepo := repository.NewQuotationRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	now := time.Now()

	if err := seedAgent(ctx, agentRepo, now); err != nil {
		appLogger.Fatal("Failed to seed agent", zap.Error(err))
	}

	if err := seedBankAccounts(ctx, accountRepo, now); err != nil {
		appLogger.Fatal("Failed to seed bank accounts", zap.Error(err))
	}

	if err := seedQuotations(ctx, quotationRepo, now); err != nil {
		appLogger.Fatal("Failed to seed quotations", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seedAgent(ctx context.Context, repo *repository.AgentRepository, now time.Time) error {
	if existing, _ := repo.GetByEmail(ctx, "agent@example.com"); existing != nil {
		return nil
	}

	password, err := auth.HashPassword("changeme123")
	if err != nil {
		return err
	}

	return repo.Create(ctx, &models.Agent{
		ID:        uuid.New(),
		FullName:  "Demo Agent",
		Email:     "agent@example.com",
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func seedBankAccounts(ctx context.Context, repo *repository.BankAccountRepository, now time.Time) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	accounts := []*models.BankAccount{
		{
			ID:            uuid.New(),
			BankName:      "Emirates NBD",
			AccountName:   "Horizon Property Management LLC",
			AccountNumber: "1014567890123",
			IsPrimary:     true,
			CreatedAt:     now,
		},
		{
			ID:            uuid.New(),
			BankName:      "Mashreq Bank",
			AccountName:   "Horizon Holdings Collections",
			AccountNumber: "0193456789012",
			IsPrimary:     false,
			CreatedAt:     now,
		},
	}

	for _, acc := range accounts {
		if err := repo.Create(ctx, acc); err != nil {
			return err
		}
	}
	return nil
}

func seedQuotations(ctx context.Context, repo *repository.QuotationRepository, now time.Time) error {
	quotations := []*models.Quotation{
		{
			ID:                  uuid.New(),
			TenantName:          "Aisha Rahman",
			PropertyName:        "Marina Heights 1204",
			AnnualRent:          decimal.NewFromInt(96000),
			ExpectedChequeCount: 4,
			PaymentMethod:       models.PaymentMethodCheque,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:                  uuid.New(),
			TenantName:          "Daniel Okafor",
			PropertyName:        "Palm Court Villa 7",
			AnnualRent:          decimal.NewFromInt(180000),
			ExpectedChequeCount: 3,
			PaymentMethod:       models.PaymentMethodMixed,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}

	for _, q := range quotations {
		if err := repo.Create(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
