package domain

import (
	"time"
)

// Region is a saved, named bounding box (e.g. "Monterey Bay") that render
// and animation endpoints operate on.
type Region struct {
	ID        string      `json:"id"`
	Slug      string      `json:"slug"`
	Name      string      `json:"name"`
	Box       BoundingBox `json:"box"`
	Labels    []Label     `json:"labels,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Label is a named point drawn onto rendered output.
type Label struct {
	Text  string   `json:"text"`
	Point GeoPoint `json:"point"`
}

// Easing selects the interpolation weight curve for animated parameters.
type Easing string

const (
	EasingLinear Easing = "linear"
	EasingCosine Easing = "cosine"
)

// SweepParameter names the render parameter a sweep animates.
type SweepParameter string

const (
	// SweepWaterLevel floods the relief up to a moving elevation level.
	SweepWaterLevel SweepParameter = "water_level"
	// SweepOverlayAlpha fades the map imagery over the relief.
	SweepOverlayAlpha SweepParameter = "overlay_alpha"
)

// SweepSpec describes one animated parameter sweep: the per-frame values
// are produced by the transition generator.
type SweepSpec struct {
	Parameter SweepParameter `json:"parameter"`
	From      float64        `json:"from"`
	To        float64        `json:"to"`
	Steps     int            `json:"steps"`
	Loop      bool           `json:"loop"`   // sweep out and back for seamless looping
	Easing    Easing         `json:"easing"` // linear or cosine
}

// JobStatus is the lifecycle state of an async render job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// RenderJob is an asynchronous animation request: render one frame per
// sweep value and assemble the frames into an animated GIF.
type RenderJob struct {
	ID         string    `json:"id"`
	RegionSlug string    `json:"region_slug"`
	Sweep      SweepSpec `json:"sweep"`
	MajorDim   int       `json:"major_dim"`
	FrameDelay int       `json:"frame_delay"` // per-frame delay in 10ms GIF ticks
	Status     JobStatus `json:"status"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobProgress is published while a worker renders a job's frames.
type JobProgress struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Frame  int       `json:"frame"`
	Frames int       `json:"frames"`
	Error  string    `json:"error,omitempty"`
}
