package api

import (
	"tenant-onboarding-backend/internal/api/handlers"
	"tenant-onboarding-backend/pkg/auth"
	"tenant-onboarding-backend/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	onboardingHandler *handlers.OnboardingHandler,
	lookupHandler *handlers.LookupHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // cheque image batches
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Auth routes (public)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	// Cheque ingestion step
	sessions := protected.Group("/onboarding/sessions")
	sessions.Post("", onboardingHandler.CreateSession)
	sessions.Get("/:id", onboardingHandler.GetSession)
	sessions.Post("/:id/images", onboardingHandler.AddImages)
	sessions.Delete("/:id/images/:index", onboardingHandler.RemoveImage)
	sessions.Post("/:id/process", onboardingHandler.Process)
	sessions.Patch("/:id/records/:index", onboardingHandler.UpdateRecord)
	sessions.Delete("/:id/records/:index", onboardingHandler.RemoveRecord)
	sessions.Post("/:id/submit", onboardingHandler.Submit)
	sessions.Post("/:id/reset", onboardingHandler.Reset)

	// Reference data
	protected.Get("/bank-accounts", lookupHandler.ListBankAccounts)
	protected.Get("/quotations/:id", lookupHandler.GetQuotation)
	protected.Get("/quotations/:id/cheques", lookupHandler.ListQuotationCheques)

	return app
}
