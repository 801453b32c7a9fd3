package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	"github.com/penshort/usermcp/internal/auth"
	"github.com/penshort/usermcp/internal/config"
	"github.com/penshort/usermcp/internal/handler"
	"github.com/penshort/usermcp/internal/middleware"
	"github.com/penshort/usermcp/internal/tools"
)

// MCP endpoint paths.
const (
	PathMCP        = "/mcp"
	PathSSE        = "/mcp/sse"
	PathSSEMessage = "/mcp/message"
)

// router configures the chi router with all routes and middleware.
func (a *App) router(verifier *auth.Verifier) *chi.Mux {
	cfg := a.Config
	logger := a.Logger

	endpoints := []string{PathMCP}
	if cfg.MCPTransport == config.TransportSSE {
		endpoints = []string{PathSSE, PathSSEMessage}
	}
	h := handler.New(handler.Info{
		Name:      cfg.AppName,
		Version:   Version,
		Transport: cfg.MCPTransport,
		Endpoints: endpoints,
		Tools:     []string{tools.ToolListUsers, tools.ToolGetUserByID, tools.ToolSearchUsers},
	})

	// A nil *cache.Cache stored in the interface would not compare equal to nil.
	var healthHandler *handler.HealthHandler
	if a.Cache != nil {
		healthHandler = handler.NewHealthHandler(a.Store, a.Cache, logger)
	} else {
		healthHandler = handler.NewHealthHandler(a.Store, nil, logger)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Probes and metrics (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/readyz", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	r.Get("/", h.Root)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:            logger,
		Metrics:           a.Metrics,
		Enabled:           cfg.RateLimitActive(),
		RequestsPerMinute: cfg.RateLimitRPM,
		Burst:             cfg.RateLimitBurst,
	}
	// Same nil-interface guard as the health handler.
	if a.Cache != nil {
		rateLimitCfg.Limiter = a.Cache
	}

	// Tool endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:   logger,
			Verifier: verifier,
			Metrics:  a.Metrics,
		}))
		r.Use(middleware.RateLimit(rateLimitCfg))

		switch cfg.MCPTransport {
		case config.TransportSSE:
			sse := server.NewSSEServer(a.MCP,
				server.WithSSEEndpoint(PathSSE),
				server.WithMessageEndpoint(PathSSEMessage),
				server.WithKeepAlive(true),
				server.WithKeepAliveInterval(30*time.Second),
				server.WithSSEContextFunc(toolContext),
			)
			r.Handle(PathSSE, sse)
			r.Handle(PathSSEMessage, sse)
		default:
			r.Handle(PathMCP, server.NewStreamableHTTPServer(a.MCP,
				server.WithHTTPContextFunc(toolContext),
			))
		}
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// toolContext carries the request id and caller from the HTTP request
// into the context tool handlers run with.
func toolContext(ctx context.Context, r *http.Request) context.Context {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		ctx = middleware.WithRequestID(ctx, id)
	}
	if caller := auth.CallerFromContext(r.Context()); caller != nil {
		ctx = auth.ContextWithCaller(ctx, caller)
	}
	return ctx
}
