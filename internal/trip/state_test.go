package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/example/trip-quoting/internal/models"
)

func loc(name string, lat, lon float64) models.Location {
	return models.Location{Name: name, Coordinates: models.Coordinate{Latitude: lat, Longitude: lon}}
}

func TestReadinessInvariant(t *testing.T) {
	s := NewState()
	if s.Status != StatusDraft {
		t.Fatalf("fresh state should be draft, got %s", s.Status)
	}

	if err := s.SetOrigin(loc("A", 10.5, -66.9)); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusDraft {
		t.Fatalf("origin alone should stay draft, got %s", s.Status)
	}

	if err := s.SetDestination(loc("B", 10.6, -66.8)); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusReady {
		t.Fatalf("both endpoints should be ready, got %s", s.Status)
	}

	// waypoints never affect readiness
	if err := s.AddWaypoint(loc("", 10.55, -66.85)); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusReady {
		t.Fatalf("waypoint changed readiness to %s", s.Status)
	}
	if s.Waypoints[0].Name != "Waypoint 1" {
		t.Fatalf("unnamed waypoint should be auto-named, got %q", s.Waypoints[0].Name)
	}

	s.Clear()
	if s.Status != StatusDraft || s.Origin != nil || s.Destination != nil || len(s.Waypoints) != 0 {
		t.Fatalf("clear did not reset: %+v", s)
	}
}

func TestExternalSignals(t *testing.T) {
	s := NewState()
	if err := s.Start(); err == nil {
		t.Fatal("draft trip must not start")
	}

	s.SetOrigin(loc("A", 10.5, -66.9))
	s.SetDestination(loc("B", 10.6, -66.8))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusInProgress {
		t.Fatalf("got %s", s.Status)
	}

	// endpoint updates mid-trip do not downgrade the signaled status
	s.SetDestination(loc("C", 10.7, -66.7))
	if s.Status != StatusInProgress {
		t.Fatalf("mid-trip update downgraded status to %s", s.Status)
	}

	if err := s.Complete(); err != nil {
		t.Fatal(err)
	}
	if err := s.Complete(); err == nil {
		t.Fatal("completed is terminal")
	}
}

func TestInvalidCoordinateRejectedWithoutMutation(t *testing.T) {
	s := NewState()
	bad := models.Location{Name: "nowhere", Coordinates: models.Coordinate{Latitude: 100, Longitude: 0}}
	if err := s.SetOrigin(bad); !errors.Is(err, models.ErrInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate, got %v", err)
	}
	if s.Origin != nil || s.Status != StatusDraft {
		t.Fatalf("state mutated on rejected input: %+v", s)
	}
}

func TestQuotable(t *testing.T) {
	s := NewState()
	if s.Quotable() {
		t.Fatal("draft must not be quotable")
	}
	s.SetOrigin(loc("A", 10.5, -66.9))
	s.SetDestination(loc("B", 10.6, -66.8))
	if !s.Quotable() {
		t.Fatal("ready must be quotable")
	}
	s.Start()
	if !s.Quotable() {
		t.Fatal("in_progress must be quotable")
	}
	s.Complete()
	if s.Quotable() {
		t.Fatal("completed must not be quotable")
	}
}

func TestManagerUpdateIsAtomic(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	_, err := m.Update(ctx, "s1", func(st *State) error {
		return st.SetOrigin(loc("A", 10.5, -66.9))
	})
	if err != nil {
		t.Fatal(err)
	}

	// a failing mutation must leave the stored state untouched
	_, err = m.Update(ctx, "s1", func(st *State) error {
		if err := st.SetDestination(loc("B", 10.6, -66.8)); err != nil {
			return err
		}
		return errors.New("superseded by a new user instruction")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	st, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Destination != nil || st.Status != StatusDraft {
		t.Fatalf("partial mutation leaked: %+v", st)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	m.Update(ctx, "a", func(st *State) error { return st.SetOrigin(loc("A", 1, 1)) })
	stB, err := m.Get(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if stB.Origin != nil {
		t.Fatal("session b saw session a's origin")
	}
}

func TestManagerGetIsIdempotent(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()
	m.Update(ctx, "s", func(st *State) error { return st.SetOrigin(loc("A", 10.5, -66.9)) })

	first, _ := m.Get(ctx, "s")
	second, _ := m.Get(ctx, "s")
	if first.Status != second.Status || *first.Origin != *second.Origin {
		t.Fatalf("reads differ: %+v vs %+v", first, second)
	}
}
