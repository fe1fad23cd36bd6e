package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tenant-onboarding-backend/internal/api"
	"tenant-onboarding-backend/internal/api/handlers"
	"tenant-onboarding-backend/internal/notify"
	"tenant-onboarding-backend/internal/ocr"
	"tenant-onboarding-backend/internal/repository"
	"tenant-onboarding-backend/internal/service"
	"tenant-onboarding-backend/internal/store"
	"tenant-onboarding-backend/pkg/auth"
	"tenant-onboarding-backend/pkg/config"
	"tenant-onboarding-backend/pkg/logger"
	"tenant-onboarding-backend/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting tenant onboarding service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	agentRepo := repository.NewAgentRepository(db, appLogger)
	accountRepo := repository.NewBankAccountRepository(db, appLogger)
	quotationRepo := repository.NewQuotationRepository(db, appLogger)
	chequeRepo := repository.NewChequeRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Session store with background eviction
	sessionStore := store.NewSessionStore(cfg.Session.ShardCount, cfg.Session.TTL)
	sessionStore.StartCleanupWorker()
	defer sessionStore.StopCleanupWorker()

	// Extraction client for the external cheque OCR service
	extractor := ocr.NewClient(&cfg.Extractor, appLogger)

	// Initialize services
	authService := service.NewAuthService(agentRepo, jwtManager, appLogger)
	notifier := notify.NewZapNotifier(appLogger)
	ingestionService := service.NewIngestionService(
		sessionStore,
		extractor,
		quotationRepo,
		accountRepo,
		chequeRepo,
		notifier,
		cfg.Session.MaxImages,
		appLogger,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	onboardingHandler := handlers.NewOnboardingHandler(ingestionService, appLogger)
	lookupHandler := handlers.NewLookupHandler(accountRepo, quotationRepo, chequeRepo, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, onboardingHandler, lookupHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
