package lockset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("friend", "a", "b"), PairKey("friend", "b", "a"))
	assert.NotEqual(t, PairKey("friend", "a", "b"), PairKey("friendApplication", "a", "b"))
}

func TestLockSerializesSameKey(t *testing.T) {
	s := New()
	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for range 20 {
		wg.Go(func() {
			unlock := s.Lock("k")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, s.size())
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	s := New()
	unlockA := s.Lock("a")
	unlockB := s.Lock("b")
	assert.Equal(t, 2, s.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, s.size())
}
