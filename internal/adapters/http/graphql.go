package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to the search service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	restaurantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Restaurant",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"name":         &graphql.Field{Type: graphql.String},
			"rating":       &graphql.Field{Type: graphql.Float},
			"rating_count": &graphql.Field{Type: graphql.Int},
			"address":      &graphql.Field{Type: graphql.String},
			"categories":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"location":     &graphql.Field{Type: geoPointType},
			"distance":     &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"restaurantsNearby": &graphql.Field{
				Type:        graphql.NewList(restaurantType),
				Description: "Search restaurants around a point",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: domain.MaxRadiusMeters / 2},
					"keyword":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"minRating": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(int)
					keyword := p.Args["keyword"].(string)
					minRating := p.Args["minRating"].(float64)

					params := domain.SearchParams{
						Center:       domain.GeoPoint{Lat: lat, Lon: lon},
						RadiusMeters: radius,
						Keyword:      keyword,
					}
					restaurants, err := deps.Search.Search(p.Context, params)
					if err != nil {
						return nil, err
					}
					return usecases.ApplyFilters(restaurants, domain.DisplayFilters{
						Cuisine:   keyword,
						MinRating: minRating,
					}), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// GraphQLHandler serves the read-only GraphQL surface.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, schemaErr := buildSchema(deps)

	return func(c *fiber.Ctx) error {
		if schemaErr != nil {
			return errInternal(c, "graphql schema: "+schemaErr.Error())
		}

		var req graphqlRequest
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
			Context:        c.Context(),
		})
		return c.JSON(result)
	}
}
