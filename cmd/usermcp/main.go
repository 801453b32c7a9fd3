// Package main is the entrypoint for the usermcp tool server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/penshort/usermcp/internal/app"
	"github.com/penshort/usermcp/internal/auth"
	"github.com/penshort/usermcp/internal/config"
	"github.com/penshort/usermcp/internal/datastore"
	"github.com/penshort/usermcp/internal/server"
)

// version can be set during build with -ldflags.
var version = "dev"

func main() {
	app.Version = version
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:          "usermcp",
		Short:        "Read-only MCP tool server over a CSV user dataset",
		Version:      version,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newValidateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the user tools over HTTP (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			return serve(cmd.Context(), cfg, initLogger(cfg))
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [csv-path]",
		Short: "Load the CSV once and report what would be served",
		Long: `Loads and validates the user CSV. The path defaults to CSV_FILE_PATH
from the environment. Exits non-zero when the file cannot be loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.CSVFilePath
			}

			store := datastore.New(path)
			if err := store.EnsureFresh(cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			st := store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d users, snapshot %s\n", path, st.Rows, st.SnapshotID)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a random value for MCP_API_TOKEN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := auth.GenerateToken(env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MCP_API_TOKEN=%s\n", tok.Plaintext)
			fmt.Fprintf(out, "# fingerprint: %s\n", tok.Fingerprint)
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", auth.EnvLive, "token environment: live or test")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error(
			"failed to initialize",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New(sanitizeError(err, cfg.RedisURL))
	}
	if a.Cache != nil {
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
	}

	a.Warmup(ctx)

	opts := server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	if cfg.MCPTransport == config.TransportSSE {
		// SSE streams stay open for the whole session.
		opts.WriteTimeout = 0
	}
	srv := server.New(a.Handler(), opts, logger)
	srv.OnShutdown("app", a.Close)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"transport", cfg.MCPTransport,
		"csv_path", cfg.CSVFilePath,
		"version", version,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		if err := a.Watch(gctx); err != nil {
			logger.Warn("source watcher stopped, relying on lazy reload", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", cfg.AppName)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
