package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter holds one token bucket per client IP
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a new IP-based rate limiter
// rps: requests per second allowed per IP
// burst: maximum burst size
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  5 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Allow reports whether ip may make a request now
func (i *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	i.mu.Lock()
	entry, exists := i.limiters[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.rps, i.burst)}
		i.limiters[ip] = entry
	}
	entry.lastSeen = now
	i.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// evictIdle drops limiters not used since now-idleTTL
func (i *IPRateLimiter) evictIdle(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	evicted := 0
	for ip, entry := range i.limiters {
		if now.Sub(entry.lastSeen) > i.idleTTL {
			delete(i.limiters, ip)
			evicted++
		}
	}
	return evicted
}

// StartJanitor periodically removes idle limiters until Stop is called
func (i *IPRateLimiter) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-i.stop:
				return
			case now := <-ticker.C:
				i.evictIdle(now)
			}
		}
	}()
}

// Stop ends the janitor goroutine
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}
