// Notes server: JSON API, browser UI and MCP endpoint over one shared
// database pool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlofelipe-hub/coolifytest/internal/config"
	"github.com/carlofelipe-hub/coolifytest/internal/db"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
	"github.com/carlofelipe-hub/coolifytest/internal/ratelimit"
	"github.com/carlofelipe-hub/coolifytest/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "notes server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}

	config.LoadDotEnv()
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		return err
	}

	obs.Init()
	obs.SetLevel(cfg.LogLevel)
	logger := obs.Pkg("main")
	cfg.PrintStartupSummary(stderr)

	store, err := db.Open(cfg.DBOptions())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("database_close_failed", "error", err)
		}
	}()

	// Startup problems are logged, not fatal: requests report store errors
	// until the database is reachable.
	prepareStore(ctx, store, cfg.InitSchemaOnStart)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	handler, err := server.NewHandler(server.Deps{
		DB:          store,
		RateLimiter: limiter,
		TrustProxy:  cfg.TrustProxy,
		MCPEnabled:  cfg.MCPEnabled,
	})
	if err != nil {
		return err
	}

	return server.ListenAndServe(ctx, cfg.ListenAddr, handler, cfg.ShutdownTimeout)
}

func prepareStore(ctx context.Context, store *db.DB, initSchema bool) {
	logger := obs.Pkg("main")

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("database_unreachable", "dialect", store.Dialect().Name, "error", err)
		return
	}
	logger.Info("database_connected", "dialect", store.Dialect().Name)

	if !initSchema {
		return
	}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("schema_init_failed", "error", err)
		return
	}
	logger.Info("schema_ready")
}
