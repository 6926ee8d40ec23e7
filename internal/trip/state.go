package trip

import (
	"fmt"

	"github.com/example/trip-quoting/internal/models"
)

// Status is the lifecycle state of a trip draft within one session.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// validTransitions covers the externally signaled part of the machine.
// draft<->ready is derived from endpoint presence, not signaled.
var validTransitions = map[Status][]Status{
	StatusDraft:      {StatusReady},
	StatusReady:      {StatusDraft, StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
}

// IsValid returns true for a recognized status.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// State holds one session's trip draft. Waypoint insertion order defines
// the visiting order for route legs.
type State struct {
	Origin      *models.Location  `json:"origin,omitempty"`
	Destination *models.Location  `json:"destination,omitempty"`
	Waypoints   []models.Location `json:"waypoints"`
	Status      Status            `json:"status"`
}

// NewState returns the default draft state handed out on first access.
func NewState() State {
	return State{Waypoints: []models.Location{}, Status: StatusDraft}
}

// SetOrigin stores the origin and re-derives readiness.
func (s *State) SetOrigin(loc models.Location) error {
	if err := loc.Coordinates.Validate(); err != nil {
		return err
	}
	s.Origin = &loc
	s.refreshReadiness()
	return nil
}

// SetDestination stores the destination and re-derives readiness.
func (s *State) SetDestination(loc models.Location) error {
	if err := loc.Coordinates.Validate(); err != nil {
		return err
	}
	s.Destination = &loc
	s.refreshReadiness()
	return nil
}

// AddWaypoint appends a waypoint. Waypoints never affect readiness.
func (s *State) AddWaypoint(loc models.Location) error {
	if err := loc.Coordinates.Validate(); err != nil {
		return err
	}
	if loc.Name == "" {
		loc.Name = fmt.Sprintf("Waypoint %d", len(s.Waypoints)+1)
	}
	s.Waypoints = append(s.Waypoints, loc)
	return nil
}

// Clear resets the draft entirely.
func (s *State) Clear() {
	*s = NewState()
}

// Start moves a ready trip to in_progress. Driven by an external signal,
// never inferred from route calculation.
func (s *State) Start() error {
	if !s.Status.CanTransitionTo(StatusInProgress) {
		return fmt.Errorf("cannot start trip in status %q", s.Status)
	}
	s.Status = StatusInProgress
	return nil
}

// Complete moves an in_progress trip to completed.
func (s *State) Complete() error {
	if !s.Status.CanTransitionTo(StatusCompleted) {
		return fmt.Errorf("cannot complete trip in status %q", s.Status)
	}
	s.Status = StatusCompleted
	return nil
}

// Quotable reports whether estimate/route calls are legal for this state.
func (s State) Quotable() bool {
	return (s.Status == StatusReady || s.Status == StatusInProgress) &&
		s.Origin != nil && s.Destination != nil
}

// refreshReadiness derives draft/ready from endpoint presence. Started or
// completed trips keep their externally signaled status.
func (s *State) refreshReadiness() {
	if s.Status != StatusDraft && s.Status != StatusReady {
		return
	}
	if s.Origin != nil && s.Destination != nil {
		s.Status = StatusReady
	} else {
		s.Status = StatusDraft
	}
}
