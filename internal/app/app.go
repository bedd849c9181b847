package app

import (
	"time"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	AuthService     *services.AuthService
	ProductService  *services.ProductService
	OrderService    *services.OrderService
	WebhookService  *services.WebhookService
	WebhookVerifier *payment.WebhookVerifier
	Logger          *zap.Logger
	// AccessLog enables fiber's request logger.
	AccessLog bool
	// Health reports dependency state for /health. Optional.
	Health func() fiber.Map
}

// New builds the Fiber app with every route mounted under /api/v1.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "storefront",
	})

	if deps.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		return c.Status(fiber.StatusOK).JSON(body)
	})

	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(deps.AuthService, deps.Logger)

	handlers.NewAuthHandler(deps.AuthService, deps.Logger).RegisterRoutes(apiV1)
	handlers.NewProductHandler(deps.ProductService, deps.Logger).RegisterRoutes(apiV1, auth)
	handlers.NewOrderHandler(deps.OrderService, deps.Logger).RegisterRoutes(apiV1, auth)
	handlers.NewWebhookHandler(deps.WebhookVerifier, deps.WebhookService, deps.Logger).RegisterRoutes(apiV1)

	return app
}
