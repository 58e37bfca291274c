package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerSpacing(t *testing.T) {
	const base = 50 * time.Millisecond
	p := NewPacer(base, 4)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	elapsed := time.Since(start)

	// First permit is immediate; the next two each wait one interval.
	assert.GreaterOrEqual(t, elapsed, 2*base)
}

func TestPacerSpacingConcurrent(t *testing.T) {
	// Spacing holds across goroutines, not just within one: N permits take at
	// least (N-1) intervals no matter how many workers ask at once.
	const base = 50 * time.Millisecond
	const n = 4
	p := NewPacer(base, 4)

	ctx := context.Background()
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(ctx))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), (n-1)*base)
}

func TestPacerWidenBounded(t *testing.T) {
	const base = 50 * time.Millisecond
	p := NewPacer(base, 4)

	assert.Equal(t, base, p.Interval())

	p.Widen()
	assert.Equal(t, 2*base, p.Interval())
	p.Widen()
	assert.Equal(t, 4*base, p.Interval())
	p.Widen() // at the cap already
	assert.Equal(t, 4*base, p.Interval())
}

func TestPacerEaseTowardBase(t *testing.T) {
	const base = 100 * time.Millisecond
	p := NewPacer(base, 8)

	p.Widen()
	require.Equal(t, 2*base, p.Interval())

	p.Ease()
	assert.Equal(t, 180*time.Millisecond, p.Interval())

	for i := 0; i < 50; i++ {
		p.Ease()
	}
	assert.Equal(t, base, p.Interval())
}

func TestPacerWaitCancelled(t *testing.T) {
	p := NewPacer(time.Hour, 1)

	ctx := context.Background()
	require.NoError(t, p.Wait(ctx)) // burst permit

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, p.Wait(cancelled))
}
