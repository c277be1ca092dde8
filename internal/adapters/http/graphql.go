package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
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

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"distance": &graphql.Field{Type: graphql.Float, Description: "Meters from the origin"},
			"address": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if place, ok := p.Source.(domain.Place); ok {
						return place.Address.String(), nil
					}
					return nil, nil
				},
			},
		},
	})

	chatReplyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ChatReply",
		Fields: graphql.Fields{
			"kind": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if reply, ok := p.Source.(domain.ChatReply); ok {
						return string(reply.Kind), nil
					}
					return nil, nil
				},
			},
			"text": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Nearest places matching a free-text request",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"q":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := domain.GeoPoint{
						Lat: p.Args["lat"].(float64),
						Lon: p.Args["lon"].(float64),
					}
					q := p.Args["q"].(string)
					radius := p.Args["radius"].(float64)
					result, err := deps.Places.Search(p.Context, &origin, q, radius)
					if err != nil {
						return nil, err
					}
					return result.Places, nil
				},
			},
			"chat": &graphql.Field{
				Type:        chatReplyType,
				Description: "Answer a chat utterance, optionally with a shared location",
				Args: graphql.FieldConfigArgument{
					"text": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":  &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":  &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := domain.ChatRequest{Text: p.Args["text"].(string)}
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if hasLat && hasLon {
						req.Location = &domain.GeoPoint{Lat: lat, Lon: lon}
					}
					reply := deps.Chat.Handle(p.Context, req)
					metrics.ChatReplies.WithLabelValues(string(reply.Kind), "graphql").Inc()
					return reply, nil
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
