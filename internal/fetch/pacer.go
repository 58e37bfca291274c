package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Pacer enforces a minimum inter-request interval toward the upstream host,
// shared by every fetch in flight regardless of strategy or worker count.
// Permit granting is serialized by the underlying limiter, so the spacing
// holds globally, not per identifier.
//
// On a block signal the interval widens (doubling, bounded); successful
// fetches ease it back toward the configured base.
type Pacer struct {
	mu       sync.Mutex
	lim      *rate.Limiter
	base     time.Duration
	current  time.Duration
	maxDelay time.Duration
}

// NewPacer creates a pacer with the given base interval. widenCap bounds how
// far the interval may stretch, as a multiple of base (values < 1 mean no
// widening headroom).
func NewPacer(base time.Duration, widenCap float64) *Pacer {
	if base <= 0 {
		base = time.Second
	}
	maxDelay := time.Duration(float64(base) * widenCap)
	if maxDelay < base {
		maxDelay = base
	}
	return &Pacer{
		lim:      rate.NewLimiter(rate.Every(base), 1),
		base:     base,
		current:  base,
		maxDelay: maxDelay,
	}
}

// Wait blocks until the next request slot is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}

// Widen doubles the inter-request interval, up to the configured ceiling.
// Called when the upstream signals blocking.
func (p *Pacer) Widen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.current * 2
	if next > p.maxDelay {
		next = p.maxDelay
	}
	if next == p.current {
		return
	}
	p.current = next
	p.lim.SetLimit(rate.Every(next))
	zap.L().Warn("pacer widened after block signal",
		zap.Duration("interval", next),
	)
}

// Ease shrinks the interval by 10% toward the base after a successful fetch.
func (p *Pacer) Ease() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == p.base {
		return
	}
	next := time.Duration(float64(p.current) * 0.9)
	if next < p.base {
		next = p.base
	}
	p.current = next
	p.lim.SetLimit(rate.Every(next))
}

// Interval returns the currently enforced minimum spacing.
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
