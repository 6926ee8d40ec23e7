package disambig

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// wsSession wraps one conversation-layer connection. Writes are serialized;
// gorilla/websocket allows only one concurrent writer.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSession) send(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(req)
}

// WSRegistry pushes disambiguation questions to connected conversation
// sessions over WebSocket. Implements Asker.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*wsSession
	pending  *Pending
	logger   *slog.Logger
}

func NewWSRegistry(pending *Pending, logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[string]*wsSession), pending: pending, logger: logger}
}

// Add registers a connection for a session, replacing any previous one.
func (r *WSRegistry) Add(sessionKey string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[sessionKey]; ok {
		_ = old.conn.Close()
	}
	r.sessions[sessionKey] = &wsSession{conn: conn}
}

// Remove drops a session's connection.
func (r *WSRegistry) Remove(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey)
}

// Ask pushes the question to the session's socket and tracks it as
// pending. Returns ErrPending on success; the answer arrives later via
// Pending.Resolve.
func (r *WSRegistry) Ask(sessionKey string, req Request) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionKey]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.send(req); err != nil {
		r.logger.Error("disambiguation push failed", "session", sessionKey, "error", err)
		return err
	}
	r.pending.Track(sessionKey, req)
	return ErrPending
}
