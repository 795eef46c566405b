package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tint-protocol/TintAi/internal/aggregator"
	"github.com/Tint-protocol/TintAi/internal/assetinfo"
	"github.com/Tint-protocol/TintAi/internal/config"
	"github.com/Tint-protocol/TintAi/internal/connection"
	"github.com/Tint-protocol/TintAi/internal/feed"
	"github.com/Tint-protocol/TintAi/internal/server"
	"github.com/Tint-protocol/TintAi/internal/store"
	"github.com/Tint-protocol/TintAi/internal/stream"
	"github.com/Tint-protocol/TintAi/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/feedd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feedd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"pairs", len(cfg.Feed.Pairs),
		"active", cfg.Feed.ActiveSymbol,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Shared state store
	st := store.New(logger)
	st.SetActiveSymbol(cfg.Feed.ActiveSymbol)

	// REST fallback chain: Binance, then Bybit, then OKX
	agg := aggregator.New(
		aggregator.Config{
			Timeout:   cfg.Sources.Timeout,
			RateLimit: cfg.Sources.RateLimit,
			RateBurst: cfg.Sources.RateBurst,
		},
		[]aggregator.Source{
			aggregator.NewBinanceSource(cfg.Sources.BinanceURL, nil),
			aggregator.NewBybitSource(cfg.Sources.BybitURL, nil),
			aggregator.NewOKXSource(cfg.Sources.OKXURL, nil),
		},
		st,
		logger,
	)

	// Asset profile client, falling back onto live ticker state
	assets := assetinfo.NewClient(
		cfg.AssetInfo.BaseURL,
		st,
		assetinfo.WithLogger(logger),
		assetinfo.WithTimeout(cfg.AssetInfo.Timeout),
		assetinfo.WithRetries(cfg.AssetInfo.MaxRetries, time.Second),
	)

	// Connection template shared by both streams
	connCfg := connection.DefaultConfig("")
	connCfg.ReconnectDelay = cfg.Streams.ReconnectDelay
	connCfg.MaxAttempts = cfg.Streams.MaxReconnects
	connCfg.BufferSize = cfg.Streams.BufferSize

	muxCfg := stream.Config{
		Debounce: cfg.Streams.Debounce,
		Conn:     connCfg,
	}

	spot := stream.NewMultiplexer(stream.NewSpotFeed(cfg.Streams.SpotURL, logger), st, muxCfg, logger)
	derivs := stream.NewMultiplexer(stream.NewDerivativesFeed(cfg.Streams.DerivativesURL, logger), st, muxCfg, logger)

	// Feed orchestrator ties the streams and the REST chain together
	orch := feed.New(
		feed.Config{
			Pairs:           cfg.Feed.Pairs,
			RefreshInterval: cfg.Feed.RefreshInterval,
			FetchTimeout:    cfg.Feed.FetchTimeout,
			WarmupWorkers:   cfg.Feed.WarmupWorkers,
		},
		spot, derivs, agg, st, logger,
	)

	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start feed orchestrator", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		orch.Stop(shutdownCtx)
	}()

	// HTTP read surface
	srv := server.New(
		server.Config{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		st, orch, assets, logger,
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start http server", "error", err)
		os.Exit(1)
	}

	logger.Info("feedd running",
		"instance_id", cfg.Instance.ID,
		"addr", cfg.Server.Addr,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("feedd stopped")
}
