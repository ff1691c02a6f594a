package googleplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/pkg/metrics"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// ErrMissingCredential is returned by New when no API key is configured.
// A missing credential is fatal at startup, not recoverable in-session.
var ErrMissingCredential = errors.New("google places: API key is not set")

var tracer = otel.Tracer("adapters/googleplaces")

// Client implements ports.PlacesGateway against the Google Places Nearby
// Search API. Calls are single-shot: no retry, no backoff; the HTTP
// client's timeout is the only deadline applied here.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var _ ports.PlacesGateway = (*Client)(nil)

// New creates a gateway client. timeout bounds each provider request.
func New(apiKey string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// nearbyResponse is the provider envelope. Only the fields the engine
// consumes are decoded.
type nearbyResponse struct {
	Status  string        `json:"status"`
	Results []placeResult `json:"results"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Types            []string `json:"types,omitempty"`
	Geometry         *struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry,omitempty"`
}

// NearbySearch runs one nearby search for restaurants around the center.
// ZERO_RESULTS yields an empty slice and a nil error; any other non-OK
// status becomes a *ports.GatewayError.
func (c *Client) NearbySearch(ctx context.Context, params domain.SearchParams) ([]domain.RawPlace, error) {
	ctx, span := tracer.Start(ctx, "places.nearby_search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("radius_meters", params.RadiusMeters),
		attribute.Bool("keyword", params.Keyword != ""),
	)

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", params.Center.Lat, params.Center.Lon))
	q.Set("radius", fmt.Sprintf("%d", params.RadiusMeters))
	q.Set("type", "restaurant")
	if params.Keyword != "" {
		q.Set("keyword", params.Keyword)
	}
	q.Set("key", c.apiKey)

	apiURL := c.baseURL + "/nearbysearch/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GatewayErrors.WithLabelValues(fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		return nil, &ports.GatewayError{Code: fmt.Sprintf("HTTP_%d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope nearbyResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}

	switch envelope.Status {
	case "OK":
		return toRawPlaces(envelope.Results), nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		metrics.GatewayErrors.WithLabelValues(envelope.Status).Inc()
		return nil, &ports.GatewayError{Code: envelope.Status}
	}
}

func toRawPlaces(results []placeResult) []domain.RawPlace {
	out := make([]domain.RawPlace, 0, len(results))
	for _, r := range results {
		raw := domain.RawPlace{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Vicinity:         r.Vicinity,
			Types:            r.Types,
		}
		if r.Geometry != nil {
			raw.Location = &domain.GeoPoint{
				Lat: r.Geometry.Location.Lat,
				Lon: r.Geometry.Location.Lng,
			}
		}
		out = append(out, raw)
	}
	return out
}

// WithBaseURL overrides the provider endpoint; used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}
