// Package server exposes the analysis workflow over HTTP, one workflow machine per session.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spigell/hr-gpt/internal/document"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAddress = ":8080"
	// DefaultBodyLimit fits the resume cap at the default document size.
	DefaultBodyLimit = 12 * int(document.DefaultMaxSize)
	shutdownTimeout  = 10 * time.Second
)

type Config struct {
	Address   string `mapstructure:"address"`
	BodyLimit int    `mapstructure:"body-limit"`
}

type Server struct {
	app      *fiber.App
	sessions *Store
	logger   *zap.Logger
	address  string
}

func New(cfg Config, sessions *Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "HR-GPT API",
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})

	s := &Server{app: app, sessions: sessions, logger: logger, address: cfg.Address}

	app.Use(recover.New())
	app.Use(s.logRequests)
	s.routes()

	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "sessions": s.sessions.Len(), "time": time.Now()})
	})

	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id", s.getSession)
	api.Delete("/sessions/:id", s.deleteSession)
	api.Post("/sessions/:id/flow", s.selectFlow)
	api.Post("/sessions/:id/individual", s.submitIndividual)
	api.Post("/sessions/:id/bulk", s.submitBulk)
	api.Post("/sessions/:id/final", s.submitFinal)
	api.Post("/sessions/:id/reset", s.reset)
	api.Get("/sessions/:id/export.:format", s.export)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("address", s.address))
		return s.app.Listen(s.address)
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	s.logger.Debug("http request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}
