package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the live channel per session. A session may have at most
// one open channel; a second connection attempt is rejected by the caller
// with CloseDuplicateChannel.
type Registry struct {
	mu   sync.Mutex
	live map[uuid.UUID]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[uuid.UUID]struct{})}
}

// Acquire claims the channel slot for a session. It returns false when the
// slot is already held by a live connection.
func (r *Registry) Acquire(sessionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[sessionID]; ok {
		return false
	}
	r.live[sessionID] = struct{}{}
	return true
}

// Release frees the channel slot for a session.
func (r *Registry) Release(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, sessionID)
}
