// Package session tracks which connection is the live one for each authenticated user.
package session

import (
	"sync"
	"time"
)

// Session is the live correspondence between a user and one connection.
type Session struct {
	UserID        string
	ConnectionID  string
	EstablishedAt time.Time
}

// Registry is a bidirectional userID <-> connectionID map. Registering a user again
// supersedes the earlier connection. It is process-local and starts empty.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Session
	byConn map[string]string
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Session),
		byConn: make(map[string]string),
		now:    time.Now,
	}
}

// Register makes connectionID the canonical session for userID. Any earlier mapping for
// either identifier is dropped. The superseded session, if any, is returned so the
// transport can close it.
func (r *Registry) Register(userID, connectionID string) (previous Session, superseded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok {
		delete(r.byConn, old.ConnectionID)
		if old.ConnectionID != connectionID {
			previous, superseded = old, true
		}
	}
	if oldUser, ok := r.byConn[connectionID]; ok && oldUser != userID {
		delete(r.byUser, oldUser)
	}

	r.byUser[userID] = Session{UserID: userID, ConnectionID: connectionID, EstablishedAt: r.now()}
	r.byConn[connectionID] = userID
	return previous, superseded
}

// Unregister removes the mapping only when the supplied identifiers still agree with the
// stored pair. Either identifier may be empty, in which case the other one decides.
// A stale disconnect therefore never evicts a newer session.
func (r *Registry) Unregister(userID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case userID != "" && connectionID != "":
		s, ok := r.byUser[userID]
		if !ok || s.ConnectionID != connectionID {
			return false
		}
	case userID != "":
		s, ok := r.byUser[userID]
		if !ok {
			return false
		}
		connectionID = s.ConnectionID
	case connectionID != "":
		u, ok := r.byConn[connectionID]
		if !ok {
			return false
		}
		userID = u
	default:
		return false
	}

	delete(r.byUser, userID)
	delete(r.byConn, connectionID)
	return true
}

// LookupConnection returns the canonical connection for userID.
func (r *Registry) LookupConnection(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[userID]
	return s.ConnectionID, ok
}

// LookupUser returns the user owning connectionID.
func (r *Registry) LookupUser(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byConn[connectionID]
	return u, ok
}

// IsCanonical reports whether connectionID is still the live session of userID.
func (r *Registry) IsCanonical(userID, connectionID string) bool {
	c, ok := r.LookupConnection(userID)
	return ok && c == connectionID
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Close drops every mapping. The registry is empty and reusable afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser = make(map[string]Session)
	r.byConn = make(map[string]string)
}
