package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/geospatial"
	"github.com/aitorve/terramotion/internal/pkg/transition"
)

// queryFloat parses a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fiber.NewError(400, name+" query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(400, name+" must be a number")
	}
	return v, nil
}

// queryBox parses the four bounding-box query parameters.
func queryBox(c *fiber.Ctx) (domain.BoundingBox, error) {
	var box domain.BoundingBox
	var err error
	if box.MinLon, err = queryFloat(c, "min_lon"); err != nil {
		return box, err
	}
	if box.MinLat, err = queryFloat(c, "min_lat"); err != nil {
		return box, err
	}
	if box.MaxLon, err = queryFloat(c, "max_lon"); err != nil {
		return box, err
	}
	if box.MaxLat, err = queryFloat(c, "max_lat"); err != nil {
		return box, err
	}
	return box, nil
}

// ImageSizeHandler computes the proportional image size for a bounding box.
func ImageSizeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		box, err := queryBox(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		majorDim := c.QueryInt("major_dim", 1024)

		size, err := geospatial.FitImageSize(box, majorDim)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(size)
	}
}

// PixelHandler maps a geographic point onto an image of the given size.
func PixelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		box, err := queryBox(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := queryFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		width := c.QueryInt("width", 0)
		height := c.QueryInt("height", 0)

		pos, err := geospatial.MapToPixel(domain.GeoPoint{Lat: lat, Lon: lon}, box, width, height)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"x":      pos.X,
			"y":      pos.Y,
			"inside": box.Contains(domain.GeoPoint{Lat: lat, Lon: lon}),
		})
	}
}

// TransitionHandler returns the interpolated value sequence for a sweep.
func TransitionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryFloat(c, "from")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryFloat(c, "to")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		steps := c.QueryInt("steps", 0)
		if steps <= 0 {
			return errBadRequest(c, "steps must be a positive integer")
		}
		if steps > 10000 {
			return errBadRequest(c, "steps too large (max 10000)")
		}
		loop := c.QueryBool("loop", false)
		easing := domain.Easing(c.Query("easing", string(domain.EasingLinear)))
		if easing != domain.EasingLinear && easing != domain.EasingCosine {
			return errBadRequest(c, "easing must be linear or cosine")
		}

		values, err := transition.Values(from, to, steps, !loop, easing)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"from":   from,
			"to":     to,
			"steps":  steps,
			"loop":   loop,
			"easing": easing,
			"values": values,
		})
	}
}

// saveRegionRequest is the body for PUT /v1/regions.
type saveRegionRequest struct {
	Slug   string             `json:"slug"`
	Name   string             `json:"name"`
	Box    domain.BoundingBox `json:"box"`
	Labels []domain.Label     `json:"labels"`
}

// SaveRegionHandler creates or updates a named region.
func SaveRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveRegionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		region := domain.Region{
			Slug:   req.Slug,
			Name:   req.Name,
			Box:    req.Box,
			Labels: req.Labels,
		}
		if err := deps.Regions.Save(c.Context(), &region); err != nil {
			return errFromDomain(c, err)
		}

		return c.Status(201).JSON(region)
	}
}

// ListRegionsHandler returns all saved regions with pagination.
func ListRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions, err := deps.Regions.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(regions)
		if offset >= total {
			regions = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			regions = regions[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: regions, Pagination: pg})
	}
}

// GetRegionHandler returns a single region by slug.
func GetRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		region, err := deps.Regions.GetBySlug(c.Context(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(region)
	}
}

// DeleteRegionHandler removes a region by slug.
func DeleteRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		if err := deps.Regions.Delete(c.Context(), slug); err != nil {
			return errFromDomain(c, err)
		}
		LoggerFromCtx(c.UserContext()).Info("region deleted", "slug", slug)
		return c.SendStatus(204)
	}
}

// RegionStatsHandler returns ground extent and suggested render size.
func RegionStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.Regions.Stats(c.Context(), c.Params("slug"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(stats)
	}
}

// ReliefHandler renders a grayscale relief PNG of a region's elevation.
func ReliefHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dim := c.QueryInt("dim", 1024)
		png, err := deps.Renders.ReliefPNG(c.Context(), c.Params("slug"), dim)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", "image/png")
		c.Set("Cache-Control", "public, max-age=3600")
		return c.Send(png)
	}
}

// MapHandler renders a labeled map imagery PNG of a region.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dim := c.QueryInt("dim", 1024)
		png, err := deps.Renders.MapPNG(c.Context(), c.Params("slug"), dim)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", "image/png")
		c.Set("Cache-Control", "public, max-age=3600")
		return c.Send(png)
	}
}

// enqueueAnimationRequest is the body for POST /v1/animations.
type enqueueAnimationRequest struct {
	RegionSlug string           `json:"region_slug"`
	Sweep      domain.SweepSpec `json:"sweep"`
	MajorDim   int              `json:"major_dim"`
	FrameDelay int              `json:"frame_delay"`
}

// EnqueueAnimationHandler validates and enqueues an async render job.
func EnqueueAnimationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req enqueueAnimationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		job := domain.RenderJob{
			RegionSlug: req.RegionSlug,
			Sweep:      req.Sweep,
			MajorDim:   req.MajorDim,
			FrameDelay: req.FrameDelay,
		}
		created, err := deps.Animations.Enqueue(c.Context(), &job)
		if err != nil {
			return errFromDomain(c, err)
		}

		LoggerFromCtx(c.UserContext()).Info("animation job enqueued",
			"job_id", created.ID, "region", created.RegionSlug)

		c.Set("Location", "/v1/animations/"+created.ID)
		return c.Status(202).JSON(created)
	}
}

// GetAnimationHandler returns the status of a render job.
func GetAnimationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Animations.Get(c.Context(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(job)
	}
}

// ListAnimationsHandler returns the most recent render jobs.
func ListAnimationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		jobs, err := deps.Animations.ListRecent(c.Context(), limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"data": jobs})
	}
}

// AnimationResultHandler streams the finished GIF for a completed job.
func AnimationResultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, err := deps.Animations.ResultPath(c.Context(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", "image/gif")
		c.Set("Cache-Control", "public, max-age=86400")
		return c.SendFile(path)
	}
}
