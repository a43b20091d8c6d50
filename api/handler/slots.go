package handler

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/use-agent/charscrape/models"
)

// Slots bounds how many batches run at once. Every batch launches its own
// browser, so the bound is small.
type Slots struct {
	sem   *semaphore.Weighted
	size  int64
	inUse atomic.Int64
}

// NewSlots returns a bound of n concurrent batches (at least 1).
func NewSlots(n int) *Slots {
	if n < 1 {
		n = 1
	}
	return &Slots{sem: semaphore.NewWeighted(int64(n)), size: int64(n)}
}

// Acquire blocks until a slot is free or ctx is done. The returned func
// releases the slot.
func (s *Slots) Acquire(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCancelled, "request cancelled while waiting for a batch slot", err)
	}
	s.inUse.Add(1)
	return func() {
		s.inUse.Add(-1)
		s.sem.Release(1)
	}, nil
}

// Full reports whether every slot is taken.
func (s *Slots) Full() bool {
	return s.inUse.Load() >= s.size
}
