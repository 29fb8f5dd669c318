package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrExhausted is returned once every slot of a Budget has been used.
var ErrExhausted = errors.New("request budget exhausted")

// Budget caps how many optional requests a run may make and paces them.
type Budget struct {
	mu      sync.Mutex
	max     int
	used    int
	limiter *rate.Limiter
}

// NewBudget allows max requests spaced at least interval apart.
// A non-positive interval disables pacing; a non-positive max allows nothing.
func NewBudget(max int, interval time.Duration) *Budget {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if max < 0 {
		max = 0
	}
	return &Budget{
		max:     max,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Take claims one slot, waiting for the pacing interval if needed.
func (b *Budget) Take(ctx context.Context) error {
	b.mu.Lock()
	if b.used >= b.max {
		b.mu.Unlock()
		return ErrExhausted
	}
	b.used++
	b.mu.Unlock()

	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for request slot: %w", err)
	}
	return nil
}

// Used returns how many slots were claimed.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns how many slots are left.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.max - b.used
}

// Max returns the configured cap.
func (b *Budget) Max() int {
	return b.max
}
