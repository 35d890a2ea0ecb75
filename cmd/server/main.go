package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/gridroute/internal/actions"
	"github.com/JonMunkholm/gridroute/internal/application"
	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/logging"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/JonMunkholm/gridroute/internal/store"
	"github.com/JonMunkholm/gridroute/internal/tracing"
	"github.com/JonMunkholm/gridroute/internal/web"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"dispatch_max_concurrent", cfg.Dispatch.MaxConcurrent,
		"strict_grids", cfg.Dispatch.StrictGrids,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"tracing_enabled", cfg.Tracing.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := route.NewMetrics(registry, "gridroute")

	// Spans go to stderr so they don't interleave with stdout logs.
	shutdownTracing, err := tracing.Setup(cfg.Tracing, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("trace flush incomplete", "error", err)
		}
	}()

	var sheetOpts []grid.SheetOption
	if cfg.Dispatch.StrictGrids {
		sheetOpts = append(sheetOpts, grid.WithStrict())
	}
	resolver := route.NewResolver(backend, sheetOpts...)
	router := route.NewRouter(resolver, route.WithMetrics(metrics))

	builtin := actions.New(resolver)
	if err := actions.Register(router, builtin); err != nil {
		return err
	}
	if cfg.Dispatch.RoutesFile != "" {
		manifest, err := actions.LoadManifest(cfg.Dispatch.RoutesFile)
		if err != nil {
			return err
		}
		if err := manifest.Apply(router, builtin); err != nil {
			return err
		}
		slog.Info("route manifest applied", "file", cfg.Dispatch.RoutesFile, "routes", len(manifest.Routes))
	}
	slog.Info("routes registered",
		"get", router.Actions(route.VerbGet),
		"post", router.Actions(route.VerbPost),
	)

	boot := application.New()
	boot.RegisterMenuItem("List rows", actions.ActionList)
	boot.RegisterMenuItem("Show header", actions.ActionHeader)
	boot.RegisterMenuItem("Find rows", actions.ActionFind)
	boot.RegisterMenuItem("Append row", actions.ActionAppend)
	boot.RegisterOnOpen("inventory", func(ctx context.Context) error {
		handles, err := backend.ListGrids(ctx)
		if err != nil {
			return err
		}
		names := make([]string, len(handles))
		for i, h := range handles {
			names[i] = h.Name
		}
		slog.Info("grids available", "count", len(handles), "names", names)
		return nil
	})
	boot.RunOnOpen(ctx, cfg.Dispatch.MenuName)

	limiter := route.NewLimiter(cfg.Dispatch.MaxConcurrent, cfg.Dispatch.MaxWait, metrics)
	server := web.NewServer(cfg, router, limiter,
		web.WithBootstrap(boot),
		web.WithGatherer(registry),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	if rl := server.RateLimiter(); rl != nil {
		g.Go(func() error {
			rl.Cleanup(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for dispatches to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
			return err
		}
		return nil
	})

	return g.Wait()
}
