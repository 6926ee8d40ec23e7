package route

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/example/trip-quoting/internal/geomath"
	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/observability"
)

// Estimate is the distance-matrix result. UsedFallback and Warning are set
// together on every locally computed path and never on the provider path.
type Estimate struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	UsedFallback    bool   `json:"used_fallback"`
	Warning         string `json:"warning,omitempty"`
}

// Path is a computed route before pricing is attached.
type Path struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Polyline        string `json:"polyline,omitempty"`
	UsedFallback    bool   `json:"used_fallback"`
	Warning         string `json:"warning,omitempty"`
}

// Service resolves distances and routes external-first, degrading to the
// great-circle estimate when the provider is unavailable or returns no
// usable result. Stateless over session-scoped inputs.
type Service struct {
	Directions  Directions // nil means fallback-only
	AvgSpeedKmh float64
	Logger      *slog.Logger
}

func NewService(directions Directions, avgSpeedKmh float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Directions: directions, AvgSpeedKmh: avgSpeedKmh, Logger: logger}
}

// DistanceAndDuration returns distance and duration between two points,
// provider-first. Malformed coordinates are rejected before any lookup.
func (s *Service) DistanceAndDuration(ctx context.Context, origin, destination models.Coordinate) (Estimate, error) {
	if err := origin.Validate(); err != nil {
		return Estimate{}, err
	}
	if err := destination.Validate(); err != nil {
		return Estimate{}, err
	}

	if s.Directions != nil {
		leg, err := s.Directions.DistanceMatrix(ctx, origin, destination)
		if err == nil {
			return Estimate{
				DistanceMeters:  int(math.Round(leg.DistanceMeters)),
				DurationSeconds: int(math.Round(leg.DurationSeconds)),
			}, nil
		}
		warning, fallbackErr := s.classifyFallback(err)
		if fallbackErr != nil {
			return Estimate{}, fallbackErr
		}
		est := s.estimate(origin, destination, nil)
		est.Warning = warning
		return est, nil
	}

	observability.ProviderFallbacks.WithLabelValues("unconfigured").Inc()
	est := s.estimate(origin, destination, nil)
	est.Warning = "No directions provider configured. Distance and duration are straight-line estimates."
	return est, nil
}

// Route computes the full route origin -> waypoints (in insertion order) ->
// destination. Preference flags are forwarded to the provider only: the
// local fallback has no road-graph data and ignores them, which the
// attached warning makes explicit.
func (s *Service) Route(ctx context.Context, origin, destination models.Coordinate, waypoints []models.Coordinate, prefs models.RoutePreferences) (Path, error) {
	if err := origin.Validate(); err != nil {
		return Path{}, err
	}
	if err := destination.Validate(); err != nil {
		return Path{}, err
	}
	for _, wp := range waypoints {
		if err := wp.Validate(); err != nil {
			return Path{}, err
		}
	}

	if s.Directions != nil {
		sum, err := s.Directions.Route(ctx, origin, destination, waypoints, prefs)
		if err == nil {
			return Path{
				DistanceMeters:  int(math.Round(sum.DistanceMeters)),
				DurationSeconds: int(math.Round(sum.DurationSeconds)),
				Polyline:        sum.Polyline,
			}, nil
		}
		warning, fallbackErr := s.classifyFallback(err)
		if fallbackErr != nil {
			return Path{}, fallbackErr
		}
		est := s.estimate(origin, destination, waypoints)
		return Path{
			DistanceMeters:  est.DistanceMeters,
			DurationSeconds: est.DurationSeconds,
			UsedFallback:    true,
			Warning:         warning,
		}, nil
	}

	observability.ProviderFallbacks.WithLabelValues("unconfigured").Inc()
	est := s.estimate(origin, destination, waypoints)
	return Path{
		DistanceMeters:  est.DistanceMeters,
		DurationSeconds: est.DurationSeconds,
		UsedFallback:    true,
		Warning:         "No directions provider configured. The route is a straight-line estimate and routing preferences were not applied.",
	}, nil
}

// classifyFallback decides whether a provider error is recoverable. The
// returned warning is non-empty exactly when the fallback applies.
func (s *Service) classifyFallback(err error) (string, error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		observability.ProviderFallbacks.WithLabelValues("unavailable").Inc()
		s.Logger.Warn("directions provider unavailable, using estimate", "error", err)
		return "Directions provider unavailable. Distance and duration are straight-line estimates and may differ from the real route.", nil
	case errors.Is(err, ErrNoRoute):
		observability.ProviderFallbacks.WithLabelValues("no_route").Inc()
		s.Logger.Warn("no route from provider, using estimate", "error", err)
		return "No direct route was found. A straight-line estimate was used; the real route may vary.", nil
	case errors.Is(err, ErrInvalidRequest):
		observability.ProviderFallbacks.WithLabelValues("invalid_request").Inc()
		s.Logger.Warn("provider rejected request, using estimate", "error", err)
		return "The directions provider could not process the request. A straight-line estimate was used.", nil
	default:
		// unexpected provider errors are not masked
		observability.ProviderErrors.Inc()
		return "", err
	}
}

// estimate sums consecutive-leg Haversine distances in waypoint insertion
// order and derives duration at the configured average speed.
func (s *Service) estimate(origin, destination models.Coordinate, waypoints []models.Coordinate) Estimate {
	total := 0.0
	prev := origin
	for _, wp := range waypoints {
		total += geomath.Haversine(prev, wp)
		prev = wp
	}
	total += geomath.Haversine(prev, destination)

	dur := geomath.EstimateDuration(total, s.AvgSpeedKmh)
	return Estimate{
		DistanceMeters:  int(math.Round(total)),
		DurationSeconds: int(math.Round(dur)),
		UsedFallback:    true,
	}
}
