// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielhkuo/postboard/metrics"
)

const (
	limiterIdleTTL = 10 * time.Minute
	sweepAbove     = 1024
	maxLimiters    = 10000
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	m       map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	max     int
	trusted []netip.Prefix
	now     func() time.Time
}

// NewRateLimiter builds a pool. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		m:     make(map[string]*limiterEntry),
		rps:   rate.Limit(rps),
		burst: burst,
		max:   maxLimiters,
		now:   time.Now,
	}
}

// TrustProxies lets X-Forwarded-For choose the key, but only for requests
// whose peer address is inside one of prefixes.
func (p *RateLimiter) TrustProxies(prefixes []netip.Prefix) {
	p.trusted = prefixes
}

// Key returns the bucket key for r. That is the connection peer, unless the
// peer is a trusted proxy, in which case it is the rightmost forwarded
// address that isn't one.
func (p *RateLimiter) Key(r *http.Request) string {
	peer := PeerIP(r)
	if len(p.trusted) == 0 {
		return peer
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil || !p.isTrusted(addr) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			// Anything left of a malformed hop is client supplied
			break
		}
		if !p.isTrusted(hop) {
			return hop.Unmap().String()
		}
	}
	return peer
}

func (p *RateLimiter) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// Allow consumes one token for key. Idle buckets are dropped as a side
// effect, and once the pool is full the least recently seen bucket makes
// room for a new key.
func (p *RateLimiter) Allow(key string) bool {
	if p.rps <= 0 {
		return true
	}
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.m[key]
	if !ok {
		if len(p.m) > sweepAbove {
			p.evictIdleLocked(now)
		}
		if len(p.m) >= p.max {
			p.evictOldestLocked()
		}
		e = &limiterEntry{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.m[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Size reports how many buckets the pool holds.
func (p *RateLimiter) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *RateLimiter) evictIdleLocked(now time.Time) {
	for k, e := range p.m {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(p.m, k)
		}
	}
}

func (p *RateLimiter) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range p.m {
		if !found || e.lastSeen.Before(oldest) {
			oldestKey, oldest, found = k, e.lastSeen, true
		}
	}
	if found {
		delete(p.m, oldestKey)
	}
}

// RateLimit rejects requests over the per-client budget with 429.
func RateLimit(p *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !p.Allow(p.Key(r)) {
			metrics.Rejected.WithLabelValues(metrics.ReasonRateLimited).Inc()
			w.Header().Set("Retry-After", "1")
			TextError(w, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
