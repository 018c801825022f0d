package web

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ReadinessProbe reports whether the server's dependencies are reachable.
type ReadinessProbe func(ctx context.Context) error

type Server struct {
	webhooks  *WebhookHandler
	readiness ReadinessProbe
	logger    *slog.Logger
}

func NewServer(webhooks *WebhookHandler, readiness ReadinessProbe, logger *slog.Logger) *Server {
	return &Server{
		webhooks:  webhooks,
		readiness: readiness,
		logger:    logger,
	}
}

func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if s.readiness == nil {
				return true
			}

			if err := s.readiness(c.Context()); err != nil {
				s.logger.Warn("Readiness probe failed", "error", err)

				return false
			}

			return true
		},
	}))

	app.Post("/webhooks/github", s.webhooks.GitHub)

	return app
}

// Run serves on port until ctx is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	app := s.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			s.logger.Error("Failed to shut down HTTP server", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
