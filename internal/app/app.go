package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/ctxlog"
	"github.com/vk/streamgridgo/internal/metrics"
	"github.com/vk/streamgridgo/internal/steps"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	catalog    *catalog.Catalog
	metrics    *metrics.Collector
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and step catalog.
// Without modules the core step types are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...catalog.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = steps.Core
	}
	c := catalog.New(modules...)
	logger.Debug("All step modules registered.", "count", len(modules), "types", c.Types())

	return &App{
		outW:    outW,
		logger:  logger,
		ctx:     ctx,
		config:  cfg,
		catalog: c,
		metrics: metrics.NewCollector("streamgrid"),
	}
}

// Catalog returns the application's step catalog. This is primarily for testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Metrics returns the collector served on /metrics.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}
