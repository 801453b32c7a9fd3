// Package app assembles the service: data store, tool server, HTTP routes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/penshort/usermcp/internal/analytics"
	"github.com/penshort/usermcp/internal/audit"
	"github.com/penshort/usermcp/internal/auth"
	"github.com/penshort/usermcp/internal/cache"
	"github.com/penshort/usermcp/internal/config"
	"github.com/penshort/usermcp/internal/datastore"
	"github.com/penshort/usermcp/internal/metrics"
	"github.com/penshort/usermcp/internal/tools"
)

// Version is reported to MCP clients and on the root endpoint.
var Version = "dev"

// App holds the wired components of a running service.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *datastore.Store
	Metrics *metrics.PrometheusRecorder
	MCP     *server.MCPServer

	// Cache is nil when REDIS_URL is unset.
	Cache *cache.Cache

	handler http.Handler
}

// New wires the application from cfg. It connects to Redis when configured
// but does not load the data source; see Warmup.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	verifier, err := auth.NewVerifier(cfg.APIToken)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	rec := metrics.NewPrometheus()
	store := datastore.New(cfg.CSVFilePath,
		datastore.WithLogger(logger),
		datastore.WithRecorder(rec),
	)

	var redisCache *cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	}

	facade := tools.NewFacade(store, tools.Config{
		DefaultPageSize: cfg.PageSizeDefault,
		MaxPageSize:     cfg.PageSizeMax,
	})
	var auditOpts []audit.Option
	if redisCache != nil && cfg.AuditStreamActive() {
		auditOpts = append(auditOpts, audit.WithSink(analytics.NewPublisher(redisCache.Client(), logger, rec)))
	}
	mcpServer := tools.NewServer(cfg.AppName, Version, facade, audit.NewWrapper(logger, rec, auditOpts...))

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: rec,
		MCP:     mcpServer,
		Cache:   redisCache,
	}
	a.handler = a.router(verifier)
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Warmup loads the data source once. Failure is logged, not returned:
// queries retry the load lazily.
func (a *App) Warmup(ctx context.Context) {
	if err := a.Store.EnsureFresh(ctx); err != nil {
		a.Logger.Error("initial data load failed",
			slog.String("path", a.Store.Path()),
			slog.String("error", err.Error()),
		)
		return
	}
	st := a.Store.Stats()
	a.Logger.Info("data source loaded",
		slog.String("path", a.Store.Path()),
		slog.String("snapshot_id", st.SnapshotID),
		slog.Int("rows", st.Rows),
	)
}

// Watch runs the source watcher until ctx is done, when enabled.
func (a *App) Watch(ctx context.Context) error {
	if !a.Config.WatchSource {
		return nil
	}
	return datastore.Watch(ctx, a.Store, a.Logger)
}

// Close releases external connections.
func (a *App) Close(context.Context) error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
