package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/aisavvy/aisavvy/internal/config"
	"github.com/aisavvy/aisavvy/internal/logging"
	"github.com/aisavvy/aisavvy/internal/schema"
	"github.com/aisavvy/aisavvy/internal/storage"
	"github.com/aisavvy/aisavvy/internal/types"
)

// Pipeline is the per-request state machine the server dispatches into
type Pipeline interface {
	Handle(ctx context.Context, turns []types.Turn) (*types.Response, error)
}

// HistoryStore serves the audit log for the history endpoint
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]storage.AuditEntry, error)
}

// Server is the HTTP API for the conversational SQL assistant
type Server struct {
	config   config.ServerConfig
	pipeline Pipeline
	history  HistoryStore
	snapshot *schema.Snapshot
	logger   *logging.Logger
	app      *fiber.App
}

// NewServer creates the API server and registers its routes
func NewServer(
	cfg config.ServerConfig,
	pipeline Pipeline,
	history HistoryStore,
	snapshot *schema.Snapshot,
	logger *logging.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           config.MustDuration(cfg.ReadTimeout),
	})

	s := &Server{
		config:   cfg,
		pipeline: pipeline,
		history:  history,
		snapshot: snapshot,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/query", s.handleQuery)
	app.Get("/history", s.handleHistory)
	app.Get("/schema/erd", s.handleERD)

	return s
}

// Run starts the API server on the configured address
func (s *Server) Run() error {
	s.logger.Infof("starting API server on %s", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}
