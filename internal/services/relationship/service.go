// package relationship implements friends, friend groups and friend applications.
//
// A friendship is two directed Friend edges that are always created and deleted together.
// Existence checks and the writes that follow them run under a lock keyed by the
// unordered user pair, so concurrent requests for the same pair cannot both pass.
package relationship

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/lockset"
)

type Service struct {
	store dal.Store
	locks *lockset.Set
	now   func() time.Time
	newID func() string
}

func New(store dal.Store, locks *lockset.Set) *Service {
	return &Service{
		store: store,
		locks: locks,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock replaces the time source used for createdAt stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) lockFriendPair(a, b string) func() {
	return s.locks.Lock(lockset.PairKey("friend", a, b))
}

func (s *Service) lockApplicationPair(a, b string) func() {
	return s.locks.Lock(lockset.PairKey("friendApplication", a, b))
}
