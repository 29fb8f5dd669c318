package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_StopsAtMax(t *testing.T) {
	b := NewBudget(3, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Take(ctx))
	}
	err := b.Take(ctx)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 3, b.Used())
	assert.Equal(t, 0, b.Remaining())
	assert.Equal(t, 3, b.Max())
}

func TestBudget_ZeroAndNegative(t *testing.T) {
	assert.ErrorIs(t, NewBudget(0, 0).Take(context.Background()), ErrExhausted)
	neg := NewBudget(-5, 0)
	assert.Equal(t, 0, neg.Max())
	assert.ErrorIs(t, neg.Take(context.Background()), ErrExhausted)
}

func TestBudget_Pacing(t *testing.T) {
	b := NewBudget(3, 20*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Take(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestBudget_CancelledContext(t *testing.T) {
	b := NewBudget(2, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, b.Take(ctx))
	cancel()
	assert.Error(t, b.Take(ctx))
}
