package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/StiensB/RestaurantFinder/internal/adapters/googleplaces"
	httpadapter "github.com/StiensB/RestaurantFinder/internal/adapters/http"
	"github.com/StiensB/RestaurantFinder/internal/adapters/valkey"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
	"github.com/StiensB/RestaurantFinder/internal/pkg/config"
	"github.com/StiensB/RestaurantFinder/internal/pkg/logging"
	"github.com/StiensB/RestaurantFinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("restaurantfinder")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Places gateway — the credential is the one fatal external setting.
	gateway, err := googleplaces.New(cfg.Google.APIKey,
		time.Duration(cfg.Google.TimeoutSeconds)*time.Second)
	if err != nil {
		log.Fatalf("places gateway: %v", err)
	}

	// Cache (optional: the service runs uncached without it)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	var search *usecases.SearchService
	if cache != nil {
		search = usecases.NewSearchService(gateway, cache)
	} else {
		search = usecases.NewSearchService(gateway, nil)
	}

	deps := &httpadapter.Dependencies{
		Search:              search,
		Gateway:             gateway,
		Cache:               cache,
		Debounce:            time.Duration(cfg.Search.DebounceMillis) * time.Millisecond,
		Cooldown:            time.Duration(cfg.Search.CooldownMillis) * time.Millisecond,
		DefaultRadiusMeters: cfg.Search.DefaultRadiusMeters,
		DefaultZoom:         cfg.Search.DefaultZoom,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024, // widget traffic is tiny
		AppName:      "RestaurantFinder API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	httpadapter.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
