package service

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/blueis/internal/core/domain"
)

// Wait request states. Pending is the only non-terminal state; exactly one
// transition out of it succeeds.
const (
	statePending int32 = iota
	stateFulfilled
	stateTimedOut
	stateCancelled
)

type waitResult struct {
	res *domain.PopResult
	err error
}

// waiter is one client blocked on one or more empty lists.
type waiter struct {
	id       string
	clientID string
	keys     [][]byte
	side     domain.Side
	state    atomic.Int32

	// result receives exactly one value from the fulfilling push.
	result chan waitResult

	// elems holds this waiter's node in each key's queue, parallel to keys.
	elems   []*list.Element
	removed bool
}

func (w *waiter) transition(to int32) bool {
	return w.state.CompareAndSwap(statePending, to)
}

// Coordinator tracks clients waiting for data on specific keys.
//
// Registration and fulfillment must happen under the key locks of the keys
// involved; the Coordinator's own mutex only guards the registry maps.
type Coordinator struct {
	mu      sync.Mutex
	queues  map[string]*list.List
	blocked int
}

// NewCoordinator creates an empty Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		queues: make(map[string]*list.List),
	}
}

// register adds a pending waiter on every key.
func (c *Coordinator) register(clientID string, keys [][]byte, side domain.Side) *waiter {
	w := &waiter{
		id:       ulid.Make().String(),
		clientID: clientID,
		keys:     keys,
		side:     side,
		result:   make(chan waitResult, 1),
		elems:    make([]*list.Element, len(keys)),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, k := range keys {
		q, ok := c.queues[string(k)]
		if !ok {
			q = list.New()
			c.queues[string(k)] = q
		}
		w.elems[i] = q.PushBack(w)
	}
	c.blocked++
	return w
}

// deregister removes w from every key queue. It is idempotent.
func (c *Coordinator) deregister(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.removed {
		return
	}
	w.removed = true
	for i, k := range w.keys {
		q, ok := c.queues[string(k)]
		if !ok {
			continue
		}
		q.Remove(w.elems[i])
		if q.Len() == 0 {
			delete(c.queues, string(k))
		}
	}
	c.blocked--
}

// claim picks a pending waiter on key and moves it to Fulfilled. Waiters
// that already left Pending are skipped; they deregister themselves.
func (c *Coordinator) claim(key []byte) *waiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[string(key)]
	if !ok {
		return nil
	}
	for e := q.Front(); e != nil; e = e.Next() {
		w := e.Value.(*waiter)
		if w.transition(stateFulfilled) {
			return w
		}
	}
	return nil
}

// wait suspends until w is fulfilled, the timeout elapses (0 waits forever)
// or ctx is done. If a fulfillment races a timeout or cancel, the
// fulfillment wins and its value is returned.
func (c *Coordinator) wait(ctx context.Context, w *waiter, timeout time.Duration) (*domain.PopResult, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case r := <-w.result:
		return r.res, r.err

	case <-expired:
		if w.transition(stateTimedOut) {
			c.deregister(w)
			return nil, domain.ErrTimeout
		}

	case <-ctx.Done():
		if w.transition(stateCancelled) {
			c.deregister(w)
			return nil, ctx.Err()
		}
	}

	r := <-w.result
	return r.res, r.err
}

// Waiting returns the number of waiters registered on key.
func (c *Coordinator) Waiting(key []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.queues[string(key)]; ok {
		return q.Len()
	}
	return 0
}

// Blocked returns the number of blocked clients.
func (c *Coordinator) Blocked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked
}
