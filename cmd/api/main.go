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

	"github.com/aitorve/terramotion/internal/adapters/elevation"
	"github.com/aitorve/terramotion/internal/adapters/http"
	"github.com/aitorve/terramotion/internal/adapters/imagery"
	natsadapter "github.com/aitorve/terramotion/internal/adapters/nats"
	"github.com/aitorve/terramotion/internal/adapters/postgres"
	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/adapters/valkey"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/core/usecases"
	"github.com/aitorve/terramotion/internal/pkg/config"
	"github.com/aitorve/terramotion/internal/pkg/logging"
	"github.com/aitorve/terramotion/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("terramotion-api")
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
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	db.StartPoolMetrics(ctx)

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
	}

	// NATS publisher for async render jobs
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket progress relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Renderer (loads the embedded label font)
	renderer, err := render.New()
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	// Tile sources
	elevationSrc := elevation.New(cfg.Elevation)
	imagerySrc := imagery.New(cfg.Imagery)

	// Repos and use cases
	regionSvc := usecases.NewRegionService(postgres.NewRegionRepo(db), cacheService(cache))
	renderSvc := usecases.NewRenderService(regionSvc, elevationSrc, imagerySrc, renderer, cacheService(cache), cfg.Render.MaxMajorDim)
	animationSvc := usecases.NewAnimationService(postgres.NewRenderJobRepo(db), renderSvc, renderer,
		publisherService(pub), cfg.Render.OutputDir, cfg.Render.MaxFrames)

	deps := &http.Dependencies{
		Regions:    regionSvc,
		Renders:    renderSvc,
		Animations: animationSvc,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Terramotion API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// cacheService avoids handing services a typed-nil cache interface.
func cacheService(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

// publisherService avoids handing services a typed-nil publisher interface.
func publisherService(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
