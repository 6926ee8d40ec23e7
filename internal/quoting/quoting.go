// Package quoting implements the two-phase quoting protocol: a multi-tier
// distance/price summary first, then a committed route and price for the
// tier the user selected. Phase 1 numbers are indicative only; the
// committed price is always recomputed from phase 2's own measurements.
// Callers must not invoke Finalize before an Estimate for the same
// origin/destination pair has completed; that ordering is a caller
// contract, not tracked here.
package quoting

import (
	"context"
	"fmt"
	"time"

	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/observability"
	"github.com/example/trip-quoting/internal/pricing"
	"github.com/example/trip-quoting/internal/route"
	"github.com/example/trip-quoting/internal/trip"
)

// Estimate is the phase-1 result: raw distance/duration plus an indicative
// price for every tier in canonical order. Never carries a polyline.
type Estimate struct {
	DistanceMeters  int                 `json:"distance_meters"`
	DurationSeconds int                 `json:"duration_seconds"`
	Options         []models.PriceQuote `json:"pricing_options"`
	HumanDuration   string              `json:"estimated_duration"`
	UsedFallback    bool                `json:"used_fallback"`
	Warning         string              `json:"warning,omitempty"`
}

// Service orchestrates the protocol over the route and pricing layers.
type Service struct {
	Routes  *route.Service
	Pricing *pricing.Calculator

	now func() time.Time // injectable for tests
}

func NewService(routes *route.Service, calc *pricing.Calculator) *Service {
	return &Service{Routes: routes, Pricing: calc, now: time.Now}
}

// Estimate runs phase 1 against a session's trip state. The state is read
// only; a failed or superseded call leaves nothing behind.
func (s *Service) Estimate(ctx context.Context, st trip.State) (Estimate, error) {
	if !st.Quotable() {
		return Estimate{}, fmt.Errorf("%w (status %s)", models.ErrPreconditionFailed, st.Status)
	}

	dd, err := s.Routes.DistanceAndDuration(ctx, st.Origin.Coordinates, st.Destination.Coordinates)
	if err != nil {
		return Estimate{}, err
	}

	options, err := s.Pricing.PriceForAllTiers(float64(dd.DistanceMeters), float64(dd.DurationSeconds))
	if err != nil {
		return Estimate{}, err
	}

	observability.EstimatesTotal.Inc()
	return Estimate{
		DistanceMeters:  dd.DistanceMeters,
		DurationSeconds: dd.DurationSeconds,
		Options:         options,
		HumanDuration:   humanDuration(dd.DurationSeconds),
		UsedFallback:    dd.UsedFallback,
		Warning:         dd.Warning,
	}, nil
}

// Finalize runs phase 2: full route (waypoints in insertion order, prefs
// forwarded), committed price for the selected tier from this phase's own
// distance/duration, and the ETA from now.
func (s *Service) Finalize(ctx context.Context, st trip.State, tier models.VehicleTier, prefs models.RoutePreferences) (models.RouteResult, error) {
	if !st.Quotable() {
		return models.RouteResult{}, fmt.Errorf("%w (status %s)", models.ErrPreconditionFailed, st.Status)
	}

	waypoints := make([]models.Coordinate, len(st.Waypoints))
	for i, wp := range st.Waypoints {
		waypoints[i] = wp.Coordinates
	}

	path, err := s.Routes.Route(ctx, st.Origin.Coordinates, st.Destination.Coordinates, waypoints, prefs)
	if err != nil {
		return models.RouteResult{}, err
	}

	quote, err := s.Pricing.PriceFor(float64(path.DistanceMeters), float64(path.DurationSeconds), tier)
	if err != nil {
		return models.RouteResult{}, err
	}
	if quote.Breakdown.SurgeMultiplier != nil {
		observability.SurgeQuotes.Inc()
	}

	arrival := s.now().Add(time.Duration(path.DurationSeconds) * time.Second)
	observability.FinalizesTotal.Inc()
	return models.RouteResult{
		DistanceMeters:  path.DistanceMeters,
		DurationSeconds: path.DurationSeconds,
		Polyline:        path.Polyline,
		Quote:           quote,
		ETA: models.ETA{
			ArrivalTime:   arrival,
			HumanDuration: humanDuration(path.DurationSeconds),
		},
		UsedFallback: path.UsedFallback,
		Warning:      path.Warning,
	}, nil
}

func humanDuration(seconds int) string {
	minutes := int(float64(seconds)/60 + 0.5)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
