// Package httpapi is the HTTP surface of docqa: document upload, question
// answering, summaries and a readiness probe, served with fiber.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ports holds the driving ports the handlers call.
type Ports struct {
	QA       driving.QAService
	Document driving.DocumentService
	Summary  driving.SummaryService
	Health   driving.HealthService
}

// Config controls the HTTP shell.
type Config struct {
	// MaxUploadMB is the request body limit in megabytes.
	MaxUploadMB int

	// RatePerSecond is the sustained per-client request rate. Zero disables
	// rate limiting.
	RatePerSecond float64

	// RateBurst is the per-client burst size.
	RateBurst int

	// LimiterIdleTTL is how long an unused per-client limiter is kept.
	LimiterIdleTTL time.Duration
}

// ConfigFromSettings builds a Config from the server settings.
func ConfigFromSettings(s domain.ServerSettings) Config {
	return Config{
		MaxUploadMB:   s.MaxUploadMB,
		RatePerSecond: s.RatePerSecond,
		RateBurst:     s.RateBurst,
	}
}

// Server is the fiber application with docqa's routes.
type Server struct {
	app   *fiber.App
	ports *Ports
}

// NewServer validates ports and builds the fiber app.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if ports == nil || ports.QA == nil || ports.Document == nil {
		return nil, errors.New("qa and document services are required")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = domain.DefaultAppSettings().Server.MaxUploadMB
	}

	app := fiber.New(fiber.Config{
		AppName:               "docqa",
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(accessLog())
	app.Use(fiberrecover.New())
	app.Use(helmet.New())
	if cfg.RatePerSecond > 0 {
		app.Use(newRateLimiter(cfg.RatePerSecond, cfg.RateBurst, cfg.LimiterIdleTTL).handler)
	}

	s := &Server{app: app, ports: ports}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.app.Post("/upload", s.upload)
	s.app.Post("/ask", s.ask)
	s.app.Post("/summarize", s.summarize)
	s.app.Get("/health", s.health)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	logger.Info("HTTP server listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}
