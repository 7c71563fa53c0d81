package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/aitorve/terramotion/internal/core/domain"
	"github.com/aitorve/terramotion/internal/pkg/geospatial"
	"github.com/aitorve/terramotion/internal/pkg/transition"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"min_lon": &graphql.Field{Type: graphql.Float},
			"min_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
		},
	})

	labelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Label",
		Fields: graphql.Fields{
			"text":  &graphql.Field{Type: graphql.String},
			"point": &graphql.Field{Type: geoPointType},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"slug":       &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"box":        &graphql.Field{Type: boxType},
			"labels":     &graphql.Field{Type: graphql.NewList(labelType)},
			"created_at": &graphql.Field{Type: graphql.String},
		},
	})

	imageSizeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ImageSize",
		Fields: graphql.Fields{
			"width":      &graphql.Field{Type: graphql.Int},
			"height":     &graphql.Field{Type: graphql.Int},
			"major_axis": &graphql.Field{Type: graphql.String},
		},
	})

	regionStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RegionStats",
		Fields: graphql.Fields{
			"slug":           &graphql.Field{Type: graphql.String},
			"east_west_km":   &graphql.Field{Type: graphql.Float},
			"north_south_km": &graphql.Field{Type: graphql.Float},
			"aspect_ratio":   &graphql.Field{Type: graphql.Float},
			"center_lat":     &graphql.Field{Type: graphql.Float},
			"center_lon":     &graphql.Field{Type: graphql.Float},
			"suggested_size": &graphql.Field{Type: imageSizeType},
		},
	})

	sweepType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Sweep",
		Fields: graphql.Fields{
			"parameter": &graphql.Field{Type: graphql.String},
			"from":      &graphql.Field{Type: graphql.Float},
			"to":        &graphql.Field{Type: graphql.Float},
			"steps":     &graphql.Field{Type: graphql.Int},
			"loop":      &graphql.Field{Type: graphql.Boolean},
			"easing":    &graphql.Field{Type: graphql.String},
		},
	})

	jobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RenderJob",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"region_slug": &graphql.Field{Type: graphql.String},
			"sweep":       &graphql.Field{Type: sweepType},
			"major_dim":   &graphql.Field{Type: graphql.Int},
			"frame_delay": &graphql.Field{Type: graphql.Int},
			"status":      &graphql.Field{Type: graphql.String},
			"output_path": &graphql.Field{Type: graphql.String},
			"error":       &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "List all saved regions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Regions.List(p.Context)
				},
			},
			"region": &graphql.Field{
				Type:        regionType,
				Description: "Get a region by slug",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Regions.GetBySlug(p.Context, p.Args["slug"].(string))
				},
			},
			"regionStats": &graphql.Field{
				Type:        regionStatsType,
				Description: "Ground extent and suggested render size for a region",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Regions.Stats(p.Context, p.Args["slug"].(string))
				},
			},
			"imageSize": &graphql.Field{
				Type:        imageSizeType,
				Description: "Proportional image size for a bounding box",
				Args: graphql.FieldConfigArgument{
					"min_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"min_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"major_dim": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1024},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					box := domain.BoundingBox{
						MinLon: p.Args["min_lon"].(float64),
						MinLat: p.Args["min_lat"].(float64),
						MaxLon: p.Args["max_lon"].(float64),
						MaxLat: p.Args["max_lat"].(float64),
					}
					return geospatial.FitImageSize(box, p.Args["major_dim"].(int))
				},
			},
			"transition": &graphql.Field{
				Type:        graphql.NewList(graphql.Float),
				Description: "Interpolated value sequence for a parameter sweep",
				Args: graphql.FieldConfigArgument{
					"from":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"steps":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"loop":   &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"easing": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "linear"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return transition.Values(
						p.Args["from"].(float64),
						p.Args["to"].(float64),
						p.Args["steps"].(int),
						!p.Args["loop"].(bool),
						domain.Easing(p.Args["easing"].(string)),
					)
				},
			},
			"animation": &graphql.Field{
				Type:        jobType,
				Description: "Get a render job by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Animations.Get(p.Context, p.Args["id"].(string))
				},
			},
			"animations": &graphql.Field{
				Type:        graphql.NewList(jobType),
				Description: "Most recent render jobs",
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Animations.ListRecent(p.Context, p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
