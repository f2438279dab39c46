package engine

import (
	"sync"
	"time"
)

const (
	rateSmoothing = 0.2

	// the rate drops to zero when no dispatch happened for this long
	rateIdleTimeout = 2 * time.Second
)

// Exponential moving average of events per second
type RateMeter struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
	rate float64
}

func NewRateMeter(now func() time.Time) *RateMeter {
	if now == nil {
		now = time.Now
	}
	return &RateMeter{now: now}
}

func (r *RateMeter) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	if !r.last.IsZero() {
		if interval := t.Sub(r.last).Seconds(); interval > 0 {
			r.rate = rateSmoothing/interval + (1-rateSmoothing)*r.rate
		}
	}
	r.last = t
}

func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last.IsZero() || r.now().Sub(r.last) > rateIdleTimeout {
		return 0
	}
	return r.rate
}
