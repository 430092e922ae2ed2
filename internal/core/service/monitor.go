package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/blueis/internal/core/domain"
)

// DefaultMonitorBuffer is the default per-subscriber queue length.
const DefaultMonitorBuffer = 100

// Subscription is one MONITOR client's feed of command records.
type Subscription struct {
	ID       string
	ClientID string
	Addr     string

	ch chan domain.MonitorRecord
}

// C returns the record channel. It is closed when the subscription is
// removed, either by Unsubscribe or because the client fell behind.
func (s *Subscription) C() <-chan domain.MonitorRecord {
	return s.ch
}

// Broadcaster fans out command records to MONITOR clients. Publish never
// blocks: a subscriber whose queue is full is dropped.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	count   atomic.Int32
	dropped atomic.Uint64
	buffer  int
	logger  *slog.Logger
}

// NewBroadcaster creates a Broadcaster with the given per-subscriber buffer.
func NewBroadcaster(buffer int, logger *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultMonitorBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe(clientID, addr string) *Subscription {
	sub := &Subscription{
		ID:       ulid.Make().String(),
		ClientID: clientID,
		Addr:     addr,
		ch:       make(chan domain.MonitorRecord, b.buffer),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.count.Add(1)
	b.mu.Unlock()

	b.logger.Debug("monitor subscribed", "client_id", clientID, "subscription_id", sub.ID)
	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call more
// than once and after the subscriber was dropped.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

func (b *Broadcaster) removeLocked(sub *Subscription) bool {
	if _, ok := b.subs[sub.ID]; !ok {
		return false
	}
	delete(b.subs, sub.ID)
	b.count.Add(-1)
	close(sub.ch)
	return true
}

// Publish delivers rec to every subscriber without blocking.
func (b *Broadcaster) Publish(rec domain.MonitorRecord) {
	if b.count.Load() == 0 {
		return
	}

	var slow []*Subscription
	b.mu.RLock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- rec:
		default:
			slow = append(slow, sub)
		}
	}
	b.mu.RUnlock()

	if len(slow) == 0 {
		return
	}

	b.mu.Lock()
	for _, sub := range slow {
		if b.removeLocked(sub) {
			b.dropped.Add(1)
			b.logger.Warn("monitor subscriber dropped",
				"client_id", sub.ClientID,
				"addr", sub.Addr,
				"buffer", b.buffer)
		}
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	return int(b.count.Load())
}

// Dropped returns how many subscribers were dropped for falling behind.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}
