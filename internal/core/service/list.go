package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/blueis/internal/core/domain"
	"github.com/yndnr/blueis/internal/storage"
)

// ListRepository defines the storage interface for list operations.
//
// Each mutation must be atomic. Index ranges follow redis semantics:
// inclusive bounds, negative values counting from the end.
type ListRepository interface {
	// Push adds values in order to one end and returns the new length.
	// With onlyIfExists set, an absent key yields domain.ErrNoSuchKey.
	Push(ctx context.Context, key []byte, side domain.Side, values [][]byte, onlyIfExists bool) (int64, error)

	// Pop removes up to count elements from one end, in removal order.
	Pop(ctx context.Context, key []byte, side domain.Side, count int64) ([][]byte, error)

	// Range returns the elements between start and stop.
	Range(ctx context.Context, key []byte, start, stop int64) ([][]byte, error)

	// Index returns the element at index; found is false when there is none.
	Index(ctx context.Context, key []byte, index int64) (value []byte, found bool, err error)

	// Len returns the number of elements, 0 for an absent key.
	Len(ctx context.Context, key []byte) (int64, error)

	// Set overwrites the element at index.
	Set(ctx context.Context, key []byte, index int64, value []byte) error

	// Trim keeps only the elements between start and stop.
	Trim(ctx context.Context, key []byte, start, stop int64) error

	// Move pops one element from src and pushes it onto dst atomically.
	Move(ctx context.Context, src, dst []byte, srcSide, dstSide domain.Side) (value []byte, moved bool, err error)
}

// ListService runs list operations under per-key locks and hands pushed
// elements to blocked clients.
type ListService struct {
	repo   ListRepository
	locks  *storage.KeyLocks
	coord  *Coordinator
	logger *slog.Logger
}

// NewListService creates a new ListService.
func NewListService(repo ListRepository, locks *storage.KeyLocks, coord *Coordinator, logger *slog.Logger) *ListService {
	if locks == nil {
		locks = storage.NewKeyLocks(0)
	}
	if coord == nil {
		coord = NewCoordinator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{
		repo:   repo,
		locks:  locks,
		coord:  coord,
		logger: logger,
	}
}

// Coordinator returns the blocking coordinator used by the service.
func (s *ListService) Coordinator() *Coordinator {
	return s.coord
}

// Push adds values to one end of the list, then serves blocked clients.
// The returned length is the length right after the push.
func (s *ListService) Push(ctx context.Context, key []byte, side domain.Side, values [][]byte, onlyIfExists bool) (int64, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	n, err := s.repo.Push(ctx, key, side, values, onlyIfExists)
	if err != nil {
		return 0, err
	}
	s.serveWaiters(ctx, key, n)
	return n, nil
}

// Pop removes up to count elements from one end of the list.
func (s *ListService) Pop(ctx context.Context, key []byte, side domain.Side, count int64) ([][]byte, error) {
	unlock := s.locks.Lock(key)
	defer unlock()
	return s.repo.Pop(ctx, key, side, count)
}

// Range returns the elements between start and stop.
func (s *ListService) Range(ctx context.Context, key []byte, start, stop int64) ([][]byte, error) {
	return s.repo.Range(ctx, key, start, stop)
}

// Index returns the element at index.
func (s *ListService) Index(ctx context.Context, key []byte, index int64) ([]byte, bool, error) {
	return s.repo.Index(ctx, key, index)
}

// Len returns the list length.
func (s *ListService) Len(ctx context.Context, key []byte) (int64, error) {
	return s.repo.Len(ctx, key)
}

// Set overwrites the element at index.
func (s *ListService) Set(ctx context.Context, key []byte, index int64, value []byte) error {
	unlock := s.locks.Lock(key)
	defer unlock()
	return s.repo.Set(ctx, key, index, value)
}

// Trim keeps only the elements between start and stop.
func (s *ListService) Trim(ctx context.Context, key []byte, start, stop int64) error {
	unlock := s.locks.Lock(key)
	defer unlock()
	return s.repo.Trim(ctx, key, start, stop)
}

// Move pops one element from src and pushes it onto dst, then serves
// clients blocked on dst.
func (s *ListService) Move(ctx context.Context, src, dst []byte, srcSide, dstSide domain.Side) ([]byte, bool, error) {
	unlock := s.locks.Lock(src, dst)
	defer unlock()

	v, moved, err := s.repo.Move(ctx, src, dst, srcSide, dstSide)
	if err != nil || !moved {
		return v, moved, err
	}
	s.serveWaiters(ctx, dst, 1)
	return v, true, nil
}

// BlockingPop pops from the first non-empty key. When every key is empty it
// blocks until a push serves it, the timeout elapses (0 blocks forever) or
// ctx is done. A timeout returns domain.ErrTimeout; cancellation returns
// the context error.
func (s *ListService) BlockingPop(ctx context.Context, clientID string, keys [][]byte, side domain.Side, timeout time.Duration) (*domain.PopResult, error) {
	unlock := s.locks.Lock(keys...)
	for _, k := range keys {
		vals, err := s.repo.Pop(ctx, k, side, 1)
		if err != nil {
			unlock()
			return nil, err
		}
		if len(vals) > 0 {
			unlock()
			return &domain.PopResult{Key: k, Value: vals[0]}, nil
		}
	}
	w := s.coord.register(clientID, keys, side)
	unlock()

	s.logger.Debug("client blocked",
		"client_id", clientID,
		"waiter_id", w.id,
		"keys", len(keys),
		"timeout", timeout)

	return s.coord.wait(ctx, w, timeout)
}

// serveWaiters hands up to available elements of key to blocked clients.
// The caller holds the key lock.
func (s *ListService) serveWaiters(ctx context.Context, key []byte, available int64) {
	ctx = context.WithoutCancel(ctx)
	for available > 0 {
		w := s.coord.claim(key)
		if w == nil {
			return
		}
		s.coord.deregister(w)

		vals, err := s.repo.Pop(ctx, key, w.side, 1)
		switch {
		case err != nil:
			s.logger.Error("hand-off pop failed",
				"client_id", w.clientID,
				"waiter_id", w.id,
				"error", err)
			w.result <- waitResult{err: err}
			return
		case len(vals) == 0:
			// Unreachable while the key lock is held.
			w.result <- waitResult{err: domain.ErrStorageIO.WithDetails("list emptied during hand-off")}
			return
		}

		w.result <- waitResult{res: &domain.PopResult{Key: key, Value: vals[0]}}
		available--
	}
}
