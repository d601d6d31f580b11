package resilience

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures the token bucket rate limiter.
type LimiterOpts struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
	// IdleTTL drops a key's bucket after this long without use. Zero keeps
	// buckets forever.
	IdleTTL time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// KeyedLimiter holds one token bucket per key, e.g. per session.
type KeyedLimiter struct {
	mu      sync.Mutex
	opts    LimiterOpts
	buckets map[string]*bucket
	now     func() time.Time // for testing
}

// NewKeyedLimiter creates a limiter. A non-positive Rate disables limiting.
func NewKeyedLimiter(opts LimiterOpts) *KeyedLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &KeyedLimiter{opts: opts, buckets: make(map[string]*bucket), now: time.Now}
}

// Allow reports whether key may proceed now, consuming a token if so.
func (k *KeyedLimiter) Allow(key string) bool {
	if k.opts.Rate <= 0 {
		return true
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(k.opts.Rate), k.opts.Burst)}
		k.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than IdleTTL and returns how many
// were removed.
func (k *KeyedLimiter) Sweep() int {
	if k.opts.IdleTTL <= 0 {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	cutoff := k.now().Add(-k.opts.IdleTTL)
	n := 0
	for key, b := range k.buckets {
		if b.seen.Before(cutoff) {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
