// Package app ties the main components of the review service together and
// owns their startup and shutdown order.
package app

import (
	"context"
	"log/slog"

	"github.com/ganderhq/gander/internal/config"
	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/server"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp assembles the application from its wired components.
func NewApp(ctx context.Context, cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting gander",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.Server.MaxWorkers,
		"llm_provider", a.cfg.LLM.Provider,
		"llm_model", a.cfg.LLM.Model,
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts the application down cleanly: the HTTP server first so no new
// deliveries arrive, then the dispatcher so queued reviews finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down gander")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("gander stopped")
	return nil
}
