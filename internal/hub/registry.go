// Package hub keeps track of which users currently hold an open
// notification stream and how to push a record onto it.
//
// A Registry holds at most one delivery callback per user. Registering
// again for the same user replaces the previous callback without notice,
// so a second browser tab takes over from the first. The registry lives
// in process memory only; a restart or a second server instance starts
// with no registrations until clients reconnect.
package hub

import (
	"errors"
	"sync"

	"homebroker/internal/models"

	"github.com/google/uuid"
)

// ErrStreamClosed is returned by a DeliverFunc whose connection has
// already been torn down.
var ErrStreamClosed = errors.New("notification stream closed")

// DeliverFunc pushes one persisted notification onto an open connection.
type DeliverFunc func(n *models.Notification) error

type registration struct {
	id      string
	deliver DeliverFunc
}

// Registry maps user ids to their active delivery callback.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register installs fn as the delivery callback for userID, replacing any
// previous one. The returned id identifies this registration for Release.
func (r *Registry) Register(userID string, fn DeliverFunc) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[userID] = registration{id: id, deliver: fn}
	r.mu.Unlock()
	return id
}

// Unregister drops whatever callback userID has. Unknown users are ignored.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// Release drops userID's callback only if it is still the registration
// identified by regID, and reports whether it did. A connection that was
// superseded by a newer one releases nothing.
func (r *Registry) Release(userID, regID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.entries[userID]
	if !ok || cur.id != regID {
		return false
	}
	delete(r.entries, userID)
	return true
}

// Get returns the current callback for userID. The lock is released
// before the caller invokes it.
func (r *Registry) Get(userID string) (DeliverFunc, bool) {
	r.mu.RLock()
	cur, ok := r.entries[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cur.deliver, true
}

// Len returns the number of users with an open stream.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
