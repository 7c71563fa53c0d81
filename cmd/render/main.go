package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/aitorve/terramotion/internal/adapters/elevation"
	"github.com/aitorve/terramotion/internal/adapters/imagery"
	"github.com/aitorve/terramotion/internal/adapters/render"
	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/core/usecases"
	"github.com/aitorve/terramotion/internal/pkg/config"
	"github.com/aitorve/terramotion/internal/pkg/logging"
)

const cliRegionSlug = "cli"

// staticRegionRepo serves the single region built from command-line flags.
type staticRegionRepo struct {
	region domain.Region
}

func (r *staticRegionRepo) Upsert(ctx context.Context, region *domain.Region) error { return nil }
func (r *staticRegionRepo) GetBySlug(ctx context.Context, slug string) (*domain.Region, error) {
	if slug != r.region.Slug {
		return nil, fmt.Errorf("%w: region %q", domain.ErrNotFound, slug)
	}
	region := r.region
	return &region, nil
}
func (r *staticRegionRepo) List(ctx context.Context) ([]domain.Region, error) {
	return []domain.Region{r.region}, nil
}
func (r *staticRegionRepo) Delete(ctx context.Context, slug string) error { return nil }

// memJobRepo holds jobs in memory; the CLI runs a single job end to end.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.RenderJob
	next int
}

func (m *memJobRepo) Insert(ctx context.Context, job *domain.RenderJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs == nil {
		m.jobs = make(map[string]domain.RenderJob)
	}
	m.next++
	job.ID = strconv.Itoa(m.next)
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	m.jobs[job.ID] = *job
	return nil
}
func (m *memJobRepo) GetByID(ctx context.Context, id string) (*domain.RenderJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: render job %q", domain.ErrNotFound, id)
	}
	return &job, nil
}
func (m *memJobRepo) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, outputPath, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: render job %q", domain.ErrNotFound, id)
	}
	job.Status = status
	job.OutputPath = outputPath
	job.Error = errMsg
	job.UpdatedAt = time.Now()
	m.jobs[id] = job
	return nil
}
func (m *memJobRepo) ListRecent(ctx context.Context, limit int) ([]domain.RenderJob, error) {
	return nil, nil
}

// barPublisher drives the terminal progress bar from frame events.
type barPublisher struct {
	bar *progressbar.ProgressBar
}

func (p *barPublisher) PublishJob(ctx context.Context, job *domain.RenderJob) error { return nil }
func (p *barPublisher) PublishProgress(ctx context.Context, prog *domain.JobProgress) error {
	if p.bar == nil && prog.Frames > 0 {
		p.bar = progressbar.Default(int64(prog.Frames), "Rendering frames")
	}
	if p.bar != nil && prog.Frame > 0 {
		_ = p.bar.Set(prog.Frame)
	}
	return nil
}

func parseBox(s string) (domain.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("bbox must be min_lon,min_lat,max_lon,max_lat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("bbox component %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return domain.BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}, nil
}

// parseLabel reads "Text@lat,lon".
func parseLabel(s string) (domain.Label, error) {
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return domain.Label{}, fmt.Errorf("label must be Text@lat,lon")
	}
	coords := strings.Split(s[at+1:], ",")
	if len(coords) != 2 {
		return domain.Label{}, fmt.Errorf("label must be Text@lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return domain.Label{}, fmt.Errorf("label lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return domain.Label{}, fmt.Errorf("label lon: %w", err)
	}
	return domain.Label{Text: s[:at], Point: domain.GeoPoint{Lat: lat, Lon: lon}}, nil
}

func main() {
	var (
		bboxFlag  = flag.String("bbox", "", "Bounding box as min_lon,min_lat,max_lon,max_lat (required)")
		name      = flag.String("name", "Region", "Region display name")
		dim       = flag.Int("dim", 1024, "Major axis length in pixels")
		reliefOut = flag.String("relief", "", "Write a grayscale relief PNG to this path")
		mapOut    = flag.String("map", "", "Write a labeled map imagery PNG to this path")
		gifOut    = flag.String("gif", "", "Render an animated parameter sweep GIF to this path")
		parameter = flag.String("parameter", "water_level", "Sweep parameter: water_level or overlay_alpha")
		from      = flag.Float64("from", 0, "Sweep start value")
		to        = flag.Float64("to", 100, "Sweep end value")
		steps     = flag.Int("steps", 30, "Number of sweep steps")
		loop      = flag.Bool("loop", false, "Sweep out and back for seamless looping")
		easing    = flag.String("easing", "cosine", "Easing curve: linear or cosine")
		delay     = flag.Int("delay", 10, "Per-frame delay in 10ms GIF ticks")
	)
	var labels []domain.Label
	flag.Func("label", "Point label as Text@lat,lon (repeatable)", func(s string) error {
		label, err := parseLabel(s)
		if err != nil {
			return err
		}
		labels = append(labels, label)
		return nil
	})
	flag.Parse()

	logging.Setup("warn", "text")

	if *bboxFlag == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *reliefOut == "" && *mapOut == "" && *gifOut == "" {
		log.Fatal("nothing to do: pass -relief, -map, or -gif")
	}

	box, err := parseBox(*bboxFlag)
	if err != nil {
		log.Fatalf("bbox: %v", err)
	}

	cfg, err := config.Load("terramotion-render")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}

	repo := &staticRegionRepo{region: domain.Region{
		ID:     cliRegionSlug,
		Slug:   cliRegionSlug,
		Name:   *name,
		Box:    box,
		Labels: labels,
	}}
	regionSvc := usecases.NewRegionService(repo, nil)
	renderSvc := usecases.NewRenderService(regionSvc, elevation.New(cfg.Elevation), imagery.New(cfg.Imagery),
		renderer, nil, cfg.Render.MaxMajorDim)

	ctx := context.Background()

	if *reliefOut != "" {
		png, err := renderSvc.ReliefPNG(ctx, cliRegionSlug, *dim)
		if err != nil {
			log.Fatalf("relief: %v", err)
		}
		if err := os.WriteFile(*reliefOut, png, 0o644); err != nil {
			log.Fatalf("write %s: %v", *reliefOut, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", *reliefOut, len(png))
	}

	if *mapOut != "" {
		png, err := renderSvc.MapPNG(ctx, cliRegionSlug, *dim)
		if err != nil {
			log.Fatalf("map: %v", err)
		}
		if err := os.WriteFile(*mapOut, png, 0o644); err != nil {
			log.Fatalf("write %s: %v", *mapOut, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", *mapOut, len(png))
	}

	if *gifOut != "" {
		outDir, err := os.MkdirTemp("", "terramotion-render-*")
		if err != nil {
			log.Fatalf("temp dir: %v", err)
		}
		defer os.RemoveAll(outDir)

		animationSvc := usecases.NewAnimationService(&memJobRepo{}, renderSvc, renderer,
			&barPublisher{}, outDir, cfg.Render.MaxFrames)

		job, err := animationSvc.Enqueue(ctx, &domain.RenderJob{
			RegionSlug: cliRegionSlug,
			MajorDim:   *dim,
			FrameDelay: *delay,
			Sweep: domain.SweepSpec{
				Parameter: domain.SweepParameter(*parameter),
				From:      *from,
				To:        *to,
				Steps:     *steps,
				Loop:      *loop,
				Easing:    domain.Easing(*easing),
			},
		})
		if err != nil {
			log.Fatalf("sweep: %v", err)
		}

		if err := animationSvc.Execute(ctx, job); err != nil {
			log.Fatalf("render: %v", err)
		}

		path, err := animationSvc.ResultPath(ctx, job.ID)
		if err != nil {
			log.Fatalf("result: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		if err := os.WriteFile(*gifOut, data, 0o644); err != nil {
			log.Fatalf("write %s: %v", *gifOut, err)
		}
		fmt.Printf("wrote %s (%d frames, %d bytes)\n", *gifOut, job.Sweep.Steps, len(data))
	}
}
