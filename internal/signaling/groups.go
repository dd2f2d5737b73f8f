package signaling

import (
	"sort"
	"sync"
)

// Groups is a set of named session groups. It is used for channel call groups and for
// the per-server rooms that receive server events. A session may sit in several groups.
type Groups struct {
	mu        sync.RWMutex
	members   map[string]map[string]struct{} // group -> sessions
	bySession map[string]map[string]struct{} // session -> groups
}

func NewGroups() *Groups {
	return &Groups{
		members:   make(map[string]map[string]struct{}),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Join adds sessionID to group and reports whether it was newly added.
func (g *Groups) Join(group, sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	sessions, ok := g.members[group]
	if !ok {
		sessions = make(map[string]struct{})
		g.members[group] = sessions
	}
	if _, ok := sessions[sessionID]; ok {
		return false
	}
	sessions[sessionID] = struct{}{}

	groups, ok := g.bySession[sessionID]
	if !ok {
		groups = make(map[string]struct{})
		g.bySession[sessionID] = groups
	}
	groups[group] = struct{}{}
	return true
}

// Leave removes sessionID from group. Leaving a group the session is not in is a no-op.
func (g *Groups) Leave(group, sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leave(group, sessionID)
}

func (g *Groups) leave(group, sessionID string) bool {
	sessions, ok := g.members[group]
	if !ok {
		return false
	}
	if _, ok := sessions[sessionID]; !ok {
		return false
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(g.members, group)
	}

	groups := g.bySession[sessionID]
	delete(groups, group)
	if len(groups) == 0 {
		delete(g.bySession, sessionID)
	}
	return true
}

// LeaveAll removes sessionID from every group and returns the groups it left, sorted.
func (g *Groups) LeaveAll(sessionID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	left := sortedKeys(g.bySession[sessionID])
	for _, group := range left {
		g.leave(group, sessionID)
	}
	return left
}

// Members returns the sessions in group, sorted.
func (g *Groups) Members(group string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.members[group])
}

// Of returns the groups sessionID belongs to, sorted.
func (g *Groups) Of(sessionID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.bySession[sessionID])
}

// Contains reports whether sessionID is in group.
func (g *Groups) Contains(group, sessionID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.members[group][sessionID]
	return ok
}

// size returns the number of non-empty groups.
func (g *Groups) size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
