package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock_go/internal/app"
	"stock_go/internal/engine"
	"stock_go/internal/feed"
	"stock_go/internal/handler"
	"stock_go/internal/infra"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Core engine wiring. The random source is seeded from config when a
	// fixed seed is set (reproducible runs), otherwise from the clock.
	seed := cfg.Market.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	pricing := engine.NewPriceEngine(engine.PricingConfig{
		CircuitPct:           cfg.Market.CircuitPct,
		JitterPct:            cfg.Market.JitterPct,
		JitterAbs:            cfg.Market.JitterAbs,
		PriceFloor:           cfg.Market.PriceFloor,
		ClampToPreviousClose: cfg.Market.ClampToPreviousClose,
	}, rng, slog.Default())

	pipeline := engine.NewPipeline(cfg.Market.MinOrderValue, slog.Default())

	hub := feed.NewHub(slog.Default())
	defer hub.Close()

	cycle := engine.NewCycle(bootstrap.Store, bootstrap.Market, pricing, pipeline, hub, slog.Default())

	// Initial price pass so the chart is live before the first settlement.
	cycle.PricePass(ctx)

	// 4. HTTP surface: order intake, ledgers, price chart, feed, metrics.
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), infra.PrometheusMiddleware())
	handler.NewHandler(bootstrap.Store, hub).RegisterRoutes(router)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: router}
	go func() {
		slog.Info("HTTP server started", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	// 5. The cycle scheduler: strictly sequential, one cycle completes
	// (including persistence) before the next tick is considered.
	interval := time.Duration(cfg.Market.CycleIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Exchange simulator operational",
		slog.String("version", cfg.App.Version),
		slog.Duration("cycle_interval", interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP shutdown failed", slog.Any("error", err))
			}
			return
		case <-ticker.C:
			if err := cycle.Run(ctx); err != nil {
				// Fatal only to this cycle; the next tick retries.
				slog.Error("cycle aborted", slog.Any("error", err))
			}
		}
	}
}
