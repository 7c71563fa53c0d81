package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aitorve/terramotion/internal/adapters/elevation"
	"github.com/aitorve/terramotion/internal/adapters/imagery"
	natsadapter "github.com/aitorve/terramotion/internal/adapters/nats"
	"github.com/aitorve/terramotion/internal/adapters/postgres"
	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/adapters/valkey"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/core/usecases"
	"github.com/aitorve/terramotion/internal/pkg/config"
	"github.com/aitorve/terramotion/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("terramotion-renderworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache (optional; rendered grids are reused across jobs)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, rendering without cache", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Publisher for progress events
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	// Job subscription
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	regionSvc := usecases.NewRegionService(postgres.NewRegionRepo(db), cacheService(cache))
	renderSvc := usecases.NewRenderService(regionSvc, elevation.New(cfg.Elevation), imagery.New(cfg.Imagery),
		renderer, cacheService(cache), cfg.Render.MaxMajorDim)
	animationSvc := usecases.NewAnimationService(postgres.NewRenderJobRepo(db), renderSvc, renderer,
		pub, cfg.Render.OutputDir, cfg.Render.MaxFrames)

	if err := os.MkdirAll(cfg.Render.OutputDir, 0o755); err != nil {
		log.Fatalf("output dir: %v", err)
	}

	err = sub.SubscribeJobs(ctx, func(ctx context.Context, job *domain.RenderJob) error {
		slog.Info("render job received", "job_id", job.ID, "region", job.RegionSlug,
			"parameter", job.Sweep.Parameter, "steps", job.Sweep.Steps)
		return animationSvc.Execute(ctx, job)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("render worker started", "output_dir", cfg.Render.OutputDir)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())
	cancel()
}

// cacheService avoids handing services a typed-nil cache interface.
func cacheService(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}
