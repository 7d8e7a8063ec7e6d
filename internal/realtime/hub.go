package realtime

import (
	"errors"
	"sync"

	"waste-bin-monitor/internal/metrics"
)

var ErrEmptyUserID = errors.New("user id is required")

// Session is one live transport connection.
type Session interface {
	ID() string
	// Send queues frame without blocking. It reports false when the session
	// is closed or its buffer is full.
	Send(frame []byte) bool
}

// Hub is the registry of live sessions. A session is attached on connect,
// bound to a user by Register and removed by Detach on disconnect.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Session            // session id -> session
	owners   map[string]string             // session id -> user id
	byUser   map[string]map[string]Session // user id -> session id -> session
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]Session),
		owners:   make(map[string]string),
		byUser:   make(map[string]map[string]Session),
	}
}

// Attach adds s to the broadcast set.
func (h *Hub) Attach(s Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	count := len(h.sessions)
	h.mu.Unlock()

	metrics.LiveSessions.Set(float64(count))
}

// Register binds s to userID. A session bound to another user is moved.
func (h *Hub) Register(userID string, s Session) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.unbindLocked(s.ID())
	set, ok := h.byUser[userID]
	if !ok {
		set = make(map[string]Session)
		h.byUser[userID] = set
	}
	set[s.ID()] = s
	h.owners[s.ID()] = userID
	count := len(h.sessions)
	h.mu.Unlock()

	metrics.LiveSessions.Set(float64(count))
	return nil
}

// Unregister drops the user binding of s but keeps it in the broadcast set.
func (h *Hub) Unregister(s Session) {
	h.mu.Lock()
	h.unbindLocked(s.ID())
	h.mu.Unlock()
}

// Detach forgets s entirely. Calling it for an unknown session is a no-op.
func (h *Hub) Detach(s Session) {
	h.mu.Lock()
	h.unbindLocked(s.ID())
	delete(h.sessions, s.ID())
	count := len(h.sessions)
	h.mu.Unlock()

	metrics.LiveSessions.Set(float64(count))
}

func (h *Hub) unbindLocked(sessionID string) {
	userID, ok := h.owners[sessionID]
	if !ok {
		return
	}
	delete(h.owners, sessionID)
	if set := h.byUser[userID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(h.byUser, userID)
		}
	}
}

// SendToUser hands frame to every live session of userID and returns how
// many accepted it.
func (h *Hub) SendToUser(userID string, frame []byte) int {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.byUser[userID]))
	for _, s := range h.byUser[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	return deliver(targets, frame)
}

// Broadcast hands frame to every attached session.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	return deliver(targets, frame)
}

func deliver(targets []Session, frame []byte) int {
	accepted := 0
	for _, s := range targets {
		if s.Send(frame) {
			accepted++
		}
	}
	return accepted
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) UserSessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
