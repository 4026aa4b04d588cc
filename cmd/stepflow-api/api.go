// Package main provides the Stepflow API server implementation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/metrics"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/dukex/stepflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	options     []services.Option
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	options ...services.Option,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		options:     options,
		metrics:     metrics.New(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		services.NewWorkflow(a.persistence, a.options...),
		services.NewStep(a.persistence, a.options...),
		services.NewRole(a.persistence, a.options...),
		services.NewConnection(a.persistence, a.options...),
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(a.metrics.Middleware())

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get(metrics.DefaultEndpoint, a.metrics.Handler())

	handlers.Register(app.Group("/api"))

	return app
}

// Start counts change events from subscriber and serves HTTP until ctx is done.
func (a *API) Start(ctx context.Context, subscriber eventbus.EventSubscriber, port int) error {
	err := a.metrics.CountEvents(subscriber)
	if err != nil {
		return fmt.Errorf("failed to register event counters: %w", err)
	}

	err = subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to change events: %w", err)
	}

	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API server", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Stepflow API listening", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
