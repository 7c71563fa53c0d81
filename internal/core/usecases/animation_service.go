package usecases

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/ports"
	"github.com/aitorve/terramotion/internal/pkg/metrics"
	"github.com/aitorve/terramotion/internal/pkg/transition"
)

// AnimationService enqueues and executes parameter-sweep render jobs.
type AnimationService struct {
	jobs      ports.RenderJobRepository
	renders   *RenderService
	renderer  *render.Renderer
	publisher ports.EventPublisher
	outputDir string
	maxFrames int
}

// NewAnimationService creates an AnimationService. The publisher may be
// nil in offline setups; jobs are then only executable in-process.
func NewAnimationService(jobs ports.RenderJobRepository, renders *RenderService, renderer *render.Renderer,
	publisher ports.EventPublisher, outputDir string, maxFrames int) *AnimationService {
	return &AnimationService{
		jobs:      jobs,
		renders:   renders,
		renderer:  renderer,
		publisher: publisher,
		outputDir: outputDir,
		maxFrames: maxFrames,
	}
}

// Enqueue validates a job, persists it as pending, and publishes it to
// the work queue.
func (s *AnimationService) Enqueue(ctx context.Context, job *domain.RenderJob) (*domain.RenderJob, error) {
	if job.Sweep.Easing == "" {
		job.Sweep.Easing = domain.EasingLinear
	}
	if err := s.validateSweep(job.Sweep); err != nil {
		return nil, err
	}
	if job.MajorDim <= 0 {
		return nil, fmt.Errorf("%w: major dimension must be positive, got %d", domain.ErrInvalidArgument, job.MajorDim)
	}
	if job.FrameDelay <= 0 {
		job.FrameDelay = 10 // 100ms per frame
	}

	// Resolve the region up front so a typo fails the request, not the worker.
	if _, _, err := s.renders.Prepare(ctx, job.RegionSlug, job.MajorDim); err != nil {
		return nil, err
	}

	job.Status = domain.JobPending
	if err := s.jobs.Insert(ctx, job); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJob(ctx, job); err != nil {
			_ = s.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, "", "enqueue: "+err.Error())
			return nil, fmt.Errorf("%w: publish job: %v", domain.ErrUnavailable, err)
		}
	}

	return job, nil
}

// Get returns a job by id.
func (s *AnimationService) Get(ctx context.Context, id string) (*domain.RenderJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListRecent returns the most recently created jobs.
func (s *AnimationService) ListRecent(ctx context.Context, limit int) ([]domain.RenderJob, error) {
	return s.jobs.ListRecent(ctx, limit)
}

// ResultPath returns the GIF path for a finished job.
func (s *AnimationService) ResultPath(ctx context.Context, id string) (string, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != domain.JobDone || job.OutputPath == "" {
		return "", fmt.Errorf("%w: job %s has no result (status %s)", domain.ErrNotFound, id, job.Status)
	}
	return job.OutputPath, nil
}

// Execute renders every frame of a job and assembles the GIF. It is
// called by the render worker (or directly in offline mode).
func (s *AnimationService) Execute(ctx context.Context, job *domain.RenderJob) error {
	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobRunning, "", ""); err != nil {
		return err
	}

	gifData, err := s.renderFrames(ctx, job)
	if err != nil {
		slog.Error("render job failed", "job_id", job.ID, "error", err)
		metrics.RenderJobs.WithLabelValues(string(domain.JobFailed)).Inc()
		_ = s.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, "", err.Error())
		s.progress(ctx, &domain.JobProgress{JobID: job.ID, Status: domain.JobFailed, Error: err.Error()})
		return err
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	outPath := filepath.Join(s.outputDir, job.ID+".gif")
	if err := os.WriteFile(outPath, gifData, 0o644); err != nil {
		_ = s.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, "", err.Error())
		return fmt.Errorf("write gif: %w", err)
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, domain.JobDone, outPath, ""); err != nil {
		return err
	}
	metrics.RenderJobs.WithLabelValues(string(domain.JobDone)).Inc()
	s.progress(ctx, &domain.JobProgress{
		JobID: job.ID, Status: domain.JobDone,
		Frame: job.Sweep.Steps, Frames: job.Sweep.Steps,
	})
	slog.Info("render job done", "job_id", job.ID, "frames", job.Sweep.Steps, "output", outPath)
	return nil
}

func (s *AnimationService) renderFrames(ctx context.Context, job *domain.RenderJob) ([]byte, error) {
	region, size, err := s.renders.Prepare(ctx, job.RegionSlug, job.MajorDim)
	if err != nil {
		return nil, err
	}

	grid, err := s.renders.Grid(ctx, region, size)
	if err != nil {
		return nil, err
	}
	base := s.renderer.Relief(grid)

	var overlay image.Image
	if job.Sweep.Parameter == domain.SweepOverlayAlpha {
		overlay, err = s.renders.Imagery(ctx, region, size)
		if err != nil {
			return nil, err
		}
	}

	values, err := transition.Values(job.Sweep.From, job.Sweep.To, job.Sweep.Steps, !job.Sweep.Loop, job.Sweep.Easing)
	if err != nil {
		return nil, err
	}

	frames := make([]image.Image, 0, len(values))
	for i, v := range values {
		start := time.Now()

		var frame *image.RGBA
		switch job.Sweep.Parameter {
		case domain.SweepWaterLevel:
			frame = s.renderer.Flood(base, grid, v)
		case domain.SweepOverlayAlpha:
			frame = s.renderer.Compose(base, overlay, v)
		default:
			return nil, fmt.Errorf("%w: unknown sweep parameter %q", domain.ErrInvalidArgument, job.Sweep.Parameter)
		}

		if err := s.renderer.DrawLabels(frame, region.Box, region.Labels); err != nil {
			return nil, err
		}

		frames = append(frames, frame)
		metrics.FramesRendered.Inc()
		metrics.RenderDuration.WithLabelValues("frame").Observe(time.Since(start).Seconds())

		s.progress(ctx, &domain.JobProgress{
			JobID: job.ID, Status: domain.JobRunning,
			Frame: i + 1, Frames: len(values),
		})
	}

	return render.EncodeGIF(frames, job.FrameDelay)
}

func (s *AnimationService) validateSweep(sweep domain.SweepSpec) error {
	switch sweep.Parameter {
	case domain.SweepWaterLevel, domain.SweepOverlayAlpha:
	default:
		return fmt.Errorf("%w: unknown sweep parameter %q", domain.ErrInvalidArgument, sweep.Parameter)
	}
	switch sweep.Easing {
	case domain.EasingLinear, domain.EasingCosine:
	default:
		return fmt.Errorf("%w: unknown easing %q", domain.ErrInvalidArgument, sweep.Easing)
	}
	if sweep.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", domain.ErrInvalidArgument, sweep.Steps)
	}
	if sweep.Steps > s.maxFrames {
		return fmt.Errorf("%w: steps %d exceeds limit %d", domain.ErrInvalidArgument, sweep.Steps, s.maxFrames)
	}
	return nil
}

func (s *AnimationService) progress(ctx context.Context, p *domain.JobProgress) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProgress(ctx, p); err != nil {
		slog.Debug("progress publish failed", "job_id", p.JobID, "error", err)
	}
}
