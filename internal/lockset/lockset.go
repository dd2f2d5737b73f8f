// Package lockset serializes work per key so existence checks and the writes that
// follow them cannot interleave for the same key.
package lockset

import (
	"sort"
	"strings"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Set is a collection of mutexes created on demand and dropped when unused.
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New creates an empty lock set.
func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key and returns the function that releases it.
func (s *Set) Lock(key string) (unlock func()) {
	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// size returns the number of keys currently held or waited on.
func (s *Set) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// PairKey builds an order-independent key for two identities under a namespace, so
// (a, b) and (b, a) contend on the same lock.
func PairKey(namespace, a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return namespace + ":" + strings.Join(pair, "|")
}
