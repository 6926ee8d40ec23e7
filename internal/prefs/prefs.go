package prefs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/trip-quoting/internal/models"
)

// Store holds per-session preferences, saved locations, and trip history.
// Reads must be idempotent: two consecutive calls with no intervening write
// return identical values.
type Store interface {
	Preferences(ctx context.Context, sessionKey string) (models.UserPreferences, error)
	SetPreferences(ctx context.Context, sessionKey string, p models.UserPreferences) error

	SavedLocations(ctx context.Context, sessionKey string) ([]models.SavedLocation, error)
	SaveLocation(ctx context.Context, sessionKey string, loc models.SavedLocation) error

	History(ctx context.Context, sessionKey string) ([]models.TripRecord, error)
	AddTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error
}

// Memory is the in-process Store used for tests and single-node runs.
type Memory struct {
	mu        sync.RWMutex
	prefs     map[string]models.UserPreferences
	locations map[string][]models.SavedLocation
	history   map[string][]models.TripRecord
}

func NewMemory() *Memory {
	return &Memory{
		prefs:     make(map[string]models.UserPreferences),
		locations: make(map[string][]models.SavedLocation),
		history:   make(map[string][]models.TripRecord),
	}
}

func (m *Memory) Preferences(ctx context.Context, sessionKey string) (models.UserPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prefs[sessionKey]; ok {
		return p, nil
	}
	return models.DefaultPreferences(), nil
}

func (m *Memory) SetPreferences(ctx context.Context, sessionKey string, p models.UserPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[sessionKey] = p
	return nil
}

func (m *Memory) SavedLocations(ctx context.Context, sessionKey string) ([]models.SavedLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.SavedLocation(nil), m.locations[sessionKey]...), nil
}

// SaveLocation upserts by case-insensitive name and stamps LastUsed.
func (m *Memory) SaveLocation(ctx context.Context, sessionKey string, loc models.SavedLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc.LastUsed = time.Now().UTC()
	m.locations[sessionKey] = UpsertLocation(m.locations[sessionKey], loc)
	return nil
}

func (m *Memory) History(ctx context.Context, sessionKey string) ([]models.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.TripRecord(nil), m.history[sessionKey]...), nil
}

func (m *Memory) AddTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[sessionKey] = append(m.history[sessionKey], rec)
	return nil
}

// UpsertLocation replaces an existing entry with the same name (case
// insensitive) or appends. Shared by every Store implementation so the
// merge rule cannot drift between backends.
func UpsertLocation(list []models.SavedLocation, loc models.SavedLocation) []models.SavedLocation {
	for i, existing := range list {
		if strings.EqualFold(existing.Name, loc.Name) {
			list[i] = loc
			return list
		}
	}
	return append(list, loc)
}
