package route

import (
	"context"
	"errors"

	"github.com/example/trip-quoting/internal/models"
)

// Failure taxonomy for external directions lookups. The first three are
// recoverable: the caller degrades to the local estimate with a warning.
// Anything else is propagated as a hard failure, since masking it could
// silently return wrong routes for systemic problems.
var (
	ErrUnavailable    = errors.New("directions provider unavailable")
	ErrNoRoute        = errors.New("no route found")
	ErrInvalidRequest = errors.New("invalid directions request")
)

// Leg is a distance/duration pair from a matrix lookup.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Summary is a full route: total distance/duration plus the overview
// polyline when the provider supplies one.
type Summary struct {
	DistanceMeters  float64
	DurationSeconds float64
	Polyline        string
}

// Directions abstracts the external routing provider. Implementations
// classify failures into the sentinel errors above; unexpected conditions
// surface as ordinary errors.
type Directions interface {
	// DistanceMatrix returns distance and duration between two points
	// without computing a full route.
	DistanceMatrix(ctx context.Context, origin, destination models.Coordinate) (Leg, error)

	// Route computes the full route through the waypoints in order,
	// honoring routing preferences.
	Route(ctx context.Context, origin, destination models.Coordinate, waypoints []models.Coordinate, prefs models.RoutePreferences) (Summary, error)
}
