package route

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/trip-quoting/internal/geomath"
	"github.com/example/trip-quoting/internal/models"
)

type fakeDirections struct {
	leg     Leg
	summary Summary
	err     error
}

func (f *fakeDirections) DistanceMatrix(ctx context.Context, o, d models.Coordinate) (Leg, error) {
	return f.leg, f.err
}

func (f *fakeDirections) Route(ctx context.Context, o, d models.Coordinate, wps []models.Coordinate, prefs models.RoutePreferences) (Summary, error) {
	return f.summary, f.err
}

var (
	origin = models.Coordinate{Latitude: 10.5, Longitude: -66.9}
	dest   = models.Coordinate{Latitude: 10.6, Longitude: -66.8}
)

func TestProviderPathLeavesFallbackUnset(t *testing.T) {
	f := &fakeDirections{leg: Leg{DistanceMeters: 16000, DurationSeconds: 1500}, summary: Summary{DistanceMeters: 16000, DurationSeconds: 1500, Polyline: "abc"}}
	s := NewService(f, 30, nil)

	est, err := s.DistanceAndDuration(context.Background(), origin, dest)
	if err != nil {
		t.Fatal(err)
	}
	if est.UsedFallback || est.Warning != "" {
		t.Fatalf("provider path should not flag fallback: %+v", est)
	}
	if est.DistanceMeters != 16000 {
		t.Fatalf("unexpected distance %d", est.DistanceMeters)
	}

	p, err := s.Route(context.Background(), origin, dest, nil, models.RoutePreferences{})
	if err != nil {
		t.Fatal(err)
	}
	if p.UsedFallback || p.Warning != "" || p.Polyline != "abc" {
		t.Fatalf("provider path broken: %+v", p)
	}
}

func TestRecoverableErrorsFallBack(t *testing.T) {
	want := geomath.Haversine(origin, dest)
	for _, cause := range []error{ErrUnavailable, ErrNoRoute, ErrInvalidRequest} {
		s := NewService(&fakeDirections{err: cause}, 30, nil)

		est, err := s.DistanceAndDuration(context.Background(), origin, dest)
		if err != nil {
			t.Fatalf("%v: expected fallback, got error %v", cause, err)
		}
		if !est.UsedFallback || est.Warning == "" {
			t.Fatalf("%v: fallback not flagged: %+v", cause, est)
		}
		if math.Abs(float64(est.DistanceMeters)-want) > 1 {
			t.Fatalf("%v: distance %d not the haversine %f", cause, est.DistanceMeters, want)
		}

		p, err := s.Route(context.Background(), origin, dest, nil, models.RoutePreferences{})
		if err != nil {
			t.Fatalf("%v: expected route fallback, got %v", cause, err)
		}
		if !p.UsedFallback || p.Warning == "" || p.Polyline != "" {
			t.Fatalf("%v: route fallback malformed: %+v", cause, p)
		}
	}
}

func TestUnexpectedProviderErrorPropagates(t *testing.T) {
	boom := errors.New("quota subsystem exploded")
	s := NewService(&fakeDirections{err: boom}, 30, nil)
	if _, err := s.DistanceAndDuration(context.Background(), origin, dest); !errors.Is(err, boom) {
		t.Fatalf("expected hard failure, got %v", err)
	}
	if _, err := s.Route(context.Background(), origin, dest, nil, models.RoutePreferences{}); !errors.Is(err, boom) {
		t.Fatalf("expected hard failure on route, got %v", err)
	}
}

func TestFallbackSumsWaypointLegs(t *testing.T) {
	s := NewService(nil, 30, nil)
	wp := models.Coordinate{Latitude: 10.55, Longitude: -66.95}

	direct, err := s.Route(context.Background(), origin, dest, nil, models.RoutePreferences{})
	if err != nil {
		t.Fatal(err)
	}
	via, err := s.Route(context.Background(), origin, dest, []models.Coordinate{wp}, models.RoutePreferences{})
	if err != nil {
		t.Fatal(err)
	}

	want := geomath.Haversine(origin, wp) + geomath.Haversine(wp, dest)
	if math.Abs(float64(via.DistanceMeters)-want) > 1 {
		t.Fatalf("leg sum off: got %d want %f", via.DistanceMeters, want)
	}
	if via.DistanceMeters <= direct.DistanceMeters {
		t.Fatalf("detour should not shorten the route: %d vs %d", via.DistanceMeters, direct.DistanceMeters)
	}
}

func TestInvalidCoordinateRejectedBeforeLookup(t *testing.T) {
	s := NewService(&fakeDirections{leg: Leg{DistanceMeters: 1}}, 30, nil)
	bad := models.Coordinate{Latitude: 91, Longitude: 0}
	if _, err := s.DistanceAndDuration(context.Background(), bad, dest); !errors.Is(err, models.ErrInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate, got %v", err)
	}
	if _, err := s.Route(context.Background(), origin, bad, nil, models.RoutePreferences{}); !errors.Is(err, models.ErrInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate on route, got %v", err)
	}
}
