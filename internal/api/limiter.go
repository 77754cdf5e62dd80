package api

import (
	"sync"

	"piscineiro/internal/config"

	"golang.org/x/time/rate"
)

// keyLimiter keeps one token bucket per caller key.
type keyLimiter struct {
	limiters sync.Map
	cfg      config.APIRateLimitConfig
}

func newKeyLimiter(cfg config.APIRateLimitConfig) *keyLimiter {
	return &keyLimiter{cfg: cfg}
}

func (l *keyLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *keyLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
