package trip

import (
	"context"
	"sync"

	"github.com/example/trip-quoting/internal/models"
)

// Store persists per-session trip state. States are plain values: Get
// returns a snapshot and Set replaces it wholesale, which is what lets the
// Manager apply mutations atomically.
type Store interface {
	Get(ctx context.Context, sessionKey string) (State, bool, error)
	Set(ctx context.Context, sessionKey string, st State) error
}

// MemoryStore keeps trip states in a process-local map.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(ctx context.Context, sessionKey string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[sessionKey]
	return st, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, sessionKey string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionKey] = st
	return nil
}

// Manager serializes trip-state mutations per session key. Sessions are
// fully independent of each other; there is no cross-session lock.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) lockFor(sessionKey string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionKey]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionKey] = l
	}
	return l
}

// Get returns the session's trip state, lazily creating the default draft.
// A pure read: no state is written back.
func (m *Manager) Get(ctx context.Context, sessionKey string) (State, error) {
	st, ok, err := m.store.Get(ctx, sessionKey)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return NewState(), nil
	}
	return st, nil
}

// Update loads the session's state, applies fn to a working copy, and
// persists the result only if fn succeeds. A failing fn leaves the stored
// state untouched, so callers never observe a half-applied mutation.
func (m *Manager) Update(ctx context.Context, sessionKey string, fn func(*State) error) (State, error) {
	l := m.lockFor(sessionKey)
	l.Lock()
	defer l.Unlock()

	st, err := m.Get(ctx, sessionKey)
	if err != nil {
		return State{}, err
	}
	working := st.clone()
	if err := fn(&working); err != nil {
		return State{}, err
	}
	if err := m.store.Set(ctx, sessionKey, working); err != nil {
		return State{}, err
	}
	return working, nil
}

// clone deep-copies the state so fn cannot alias the stored waypoint slice.
func (s State) clone() State {
	out := s
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Destination != nil {
		d := *s.Destination
		out.Destination = &d
	}
	out.Waypoints = append([]models.Location(nil), s.Waypoints...)
	return out
}
