package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/trip-quoting/internal/models"
)

const defaultMapsEndpoint = "https://maps.googleapis.com/maps/api"

// GoogleMapsClient performs Distance Matrix and Directions lookups against
// the Google Maps web APIs.
type GoogleMapsClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewGoogleMapsClient(endpoint, apiKey string) *GoogleMapsClient {
	if endpoint == "" {
		endpoint = defaultMapsEndpoint
	}
	return &GoogleMapsClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 3 * time.Second},
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
	ErrorMessage string `json:"error_message"`
}

// DistanceMatrix queries the Distance Matrix API for one origin/destination
// pair. An unset API key reads as provider-unavailable so the caller can
// fall back without a network round trip.
func (g *GoogleMapsClient) DistanceMatrix(ctx context.Context, origin, destination models.Coordinate) (Leg, error) {
	if g.APIKey == "" {
		return Leg{}, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	q := url.Values{}
	q.Set("origins", fmtCoord(origin))
	q.Set("destinations", fmtCoord(destination))
	q.Set("units", "metric")
	q.Set("key", g.APIKey)

	var out matrixResponse
	if err := g.getJSON(ctx, "/distancematrix/json", q, &out); err != nil {
		return Leg{}, err
	}

	if err := classifyStatus(out.Status, out.ErrorMessage); err != nil {
		return Leg{}, err
	}
	if len(out.Rows) == 0 || len(out.Rows[0].Elements) == 0 {
		return Leg{}, fmt.Errorf("%w: empty matrix response", ErrNoRoute)
	}
	el := out.Rows[0].Elements[0]
	if err := classifyStatus(el.Status, ""); err != nil {
		return Leg{}, err
	}
	return Leg{DistanceMeters: el.Distance.Value, DurationSeconds: el.Duration.Value}, nil
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
	ErrorMessage string `json:"error_message"`
}

// Route queries the Directions API. Legs are summed so waypoint routes
// report total distance and duration.
func (g *GoogleMapsClient) Route(ctx context.Context, origin, destination models.Coordinate, waypoints []models.Coordinate, prefs models.RoutePreferences) (Summary, error) {
	if g.APIKey == "" {
		return Summary{}, fmt.Errorf("%w: no API key configured", ErrUnavailable)
	}

	q := url.Values{}
	q.Set("origin", fmtCoord(origin))
	q.Set("destination", fmtCoord(destination))
	q.Set("units", "metric")
	q.Set("key", g.APIKey)
	if len(waypoints) > 0 {
		parts := make([]string, len(waypoints))
		for i, wp := range waypoints {
			parts[i] = fmtCoord(wp)
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}
	var avoid []string
	if prefs.AvoidTolls {
		avoid = append(avoid, "tolls")
	}
	if prefs.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	if len(avoid) > 0 {
		q.Set("avoid", strings.Join(avoid, "|"))
	}

	var out directionsResponse
	if err := g.getJSON(ctx, "/directions/json", q, &out); err != nil {
		return Summary{}, err
	}

	if err := classifyStatus(out.Status, out.ErrorMessage); err != nil {
		return Summary{}, err
	}
	if len(out.Routes) == 0 {
		return Summary{}, fmt.Errorf("%w: empty directions response", ErrNoRoute)
	}

	var s Summary
	r := out.Routes[0]
	for _, leg := range r.Legs {
		s.DistanceMeters += leg.Distance.Value
		s.DurationSeconds += leg.Duration.Value
	}
	s.Polyline = r.OverviewPolyline.Points
	return s, nil
}

func (g *GoogleMapsClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		// network errors and timeouts read as provider-unavailable
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected directions status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directions response: %w", err)
	}
	return nil
}

// classifyStatus maps Google Maps API status strings onto the failure
// taxonomy. Unknown statuses are deliberately not folded into the
// recoverable set.
func classifyStatus(status, errorMessage string) error {
	switch status {
	case "OK", "":
		return nil
	case "ZERO_RESULTS":
		return fmt.Errorf("%w: zero results", ErrNoRoute)
	case "NOT_FOUND", "INVALID_REQUEST", "MAX_WAYPOINTS_EXCEEDED":
		return fmt.Errorf("%w: %s", ErrInvalidRequest, status)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "UNKNOWN_ERROR":
		return fmt.Errorf("%w: %s", ErrUnavailable, status)
	default:
		if errorMessage != "" {
			return fmt.Errorf("directions provider error: %s: %s", status, errorMessage)
		}
		return fmt.Errorf("directions provider error: %s", status)
	}
}

func fmtCoord(c models.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}
