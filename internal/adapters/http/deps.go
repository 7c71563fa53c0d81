package http

import (
	"github.com/nats-io/nats.go"

	"github.com/aitorve/terramotion/internal/adapters/postgres"
	"github.com/aitorve/terramotion/internal/adapters/valkey"
	"github.com/aitorve/terramotion/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Regions    *usecases.RegionService
	Renders    *usecases.RenderService
	Animations *usecases.AnimationService
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
