package storage

import (
	"sort"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultLockStripes is the default number of key lock stripes.
const DefaultLockStripes = 256

// KeyLocks serializes work on individual keys with a fixed set of mutex
// stripes. Distinct keys may share a stripe.
type KeyLocks struct {
	stripes []sync.Mutex
}

// NewKeyLocks creates a lock set with n stripes (DefaultLockStripes if n <= 0).
func NewKeyLocks(n int) *KeyLocks {
	if n <= 0 {
		n = DefaultLockStripes
	}
	return &KeyLocks{stripes: make([]sync.Mutex, n)}
}

// Stripe returns the stripe index guarding key.
func (l *KeyLocks) Stripe(key []byte) int {
	return int(murmur3.Sum32(key) % uint32(len(l.stripes)))
}

// Lock acquires the stripes of all keys in ascending stripe order and returns
// the function that releases them.
func (l *KeyLocks) Lock(keys ...[]byte) (unlock func()) {
	idx := make([]int, 0, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		s := l.Stripe(k)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		idx = append(idx, s)
	}
	sort.Ints(idx)

	for _, s := range idx {
		l.stripes[s].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			l.stripes[idx[i]].Unlock()
		}
	}
}
