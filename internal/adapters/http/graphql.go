package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geofotos/internal/core/domain"
)

// pointArgs reads and validates the lat/lon arguments shared by the
// resolution queries.
func pointArgs(p graphql.ResolveParams) (domain.GeoPoint, error) {
	lat, _ := p.Args["lat"].(float64)
	lon, _ := p.Args["lon"].(float64)
	pt := domain.GeoPoint{Lat: lat, Lon: lon}
	if !pt.Valid() {
		return domain.GeoPoint{}, errors.New("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	return pt, nil
}

// resultType builds the {value, status, reason} wrapper for a resolver.
func resultType(name string, value graphql.Output) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"value":  &graphql.Field{Type: value},
			"status": &graphql.Field{Type: graphql.String},
			"reason": &graphql.Field{Type: graphql.String},
		},
	})
}

// buildSchema creates the GraphQL schema wired to our services.
// Struct fields resolve through their json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	addressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Address",
		Fields: graphql.Fields{
			"road":          &graphql.Field{Type: graphql.String},
			"house_number":  &graphql.Field{Type: graphql.String},
			"neighbourhood": &graphql.Field{Type: graphql.String},
			"city":          &graphql.Field{Type: graphql.String},
			"state":         &graphql.Field{Type: graphql.String},
			"postcode":      &graphql.Field{Type: graphql.String},
			"hamlet":        &graphql.Field{Type: graphql.String},
			"county":        &graphql.Field{Type: graphql.String},
			"formatted":     &graphql.Field{Type: graphql.String},
			"full_address":  &graphql.Field{Type: graphql.String},
		},
	})

	kmEstimateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "KmEstimate",
		Fields: graphql.Fields{
			"km":         &graphql.Field{Type: graphql.Float},
			"estimated":  &graphql.Field{Type: graphql.Boolean},
			"method":     &graphql.Field{Type: graphql.String},
			"distance_m": &graphql.Field{Type: graphql.Float},
		},
	})

	highwayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Highway",
		Fields: graphql.Fields{
			"ref":      &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"estimate": &graphql.Field{Type: kmEstimateType},
		},
	})

	landmarkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Landmark",
		Fields: graphql.Fields{
			"name":       &graphql.Field{Type: graphql.String},
			"type":       &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"icon":       &graphql.Field{Type: graphql.String},
			"distance_m": &graphql.Field{Type: graphql.Float},
			"source":     &graphql.Field{Type: graphql.String},
			"relevance":  &graphql.Field{Type: graphql.Float},
			"location":   &graphql.Field{Type: geoPointType},
		},
	})

	outcomeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Outcome",
		Fields: graphql.Fields{
			"status": &graphql.Field{Type: graphql.String},
			"reason": &graphql.Field{Type: graphql.String},
		},
	})

	locationInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LocationInfo",
		Fields: graphql.Fields{
			"point":     &graphql.Field{Type: geoPointType},
			"geohash":   &graphql.Field{Type: graphql.String},
			"address":   &graphql.Field{Type: addressType},
			"highway":   &graphql.Field{Type: highwayType},
			"landmarks": &graphql.Field{Type: graphql.NewList(landmarkType)},
			"outcomes": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "Outcomes",
				Fields: graphql.Fields{
					"address":   &graphql.Field{Type: outcomeType},
					"highway":   &graphql.Field{Type: outcomeType},
					"landmarks": &graphql.Field{Type: outcomeType},
				},
			})},
			"resolved_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	enrichmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Enrichment",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"capture_id": &graphql.Field{Type: graphql.String},
			"point":      &graphql.Field{Type: geoPointType},
			"status":     &graphql.Field{Type: graphql.String},
			"info":       &graphql.Field{Type: locationInfoType},
			"attempts":   &graphql.Field{Type: graphql.Int},
			"error":      &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	pointArgsConfig := func() graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"locationInfo": &graphql.Field{
				Type:        locationInfoType,
				Description: "Address, highway and landmarks for a point",
				Args:        pointArgsConfig(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := pointArgs(p)
					if err != nil {
						return nil, err
					}
					info := deps.Locations.Resolve(p.Context, pt)
					return &info, nil
				},
			},
			"address": &graphql.Field{
				Type:        resultType("AddressResult", addressType),
				Description: "Reverse geocode a point",
				Args:        pointArgsConfig(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := pointArgs(p)
					if err != nil {
						return nil, err
					}
					res := deps.Locations.Addresses().ReverseGeocode(p.Context, pt)
					return &res, nil
				},
			},
			"highway": &graphql.Field{
				Type:        resultType("HighwayResult", highwayType),
				Description: "Highway and kilometer at a point",
				Args:        pointArgsConfig(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := pointArgs(p)
					if err != nil {
						return nil, err
					}
					res := deps.Locations.Highways().FindHighwayInfo(p.Context, pt)
					res.Value = res.Value.WithoutGeometry()
					return &res, nil
				},
			},
			"landmarks": &graphql.Field{
				Type:        resultType("LandmarksResult", graphql.NewList(landmarkType)),
				Description: "Ranked landmarks near a point",
				Args:        pointArgsConfig(),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := pointArgs(p)
					if err != nil {
						return nil, err
					}
					res := deps.Locations.Landmarks().FindNearbyLandmarks(p.Context, pt)
					return &res, nil
				},
			},
			"enrichment": &graphql.Field{
				Type:        enrichmentType,
				Description: "Get an enrichment job by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					job, err := deps.Enrichments.Get(p.Context, id)
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return job, err
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
