package main

import (
	"context"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// -------- Rate limiter (token bucket per client key) --------

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter caps command requests per client. Each bucket holds up to
// burst tokens and refills continuously at rpm per minute. rpm <= 0
// disables it; burst <= 0 means a bucket of rpm tokens.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rpm      int
	burst    int
	cleanInt time.Duration
	now      func() time.Time
}

func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = rpm
	}
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		rpm:      rpm,
		burst:    burst,
		cleanInt: 5 * time.Minute,
		now:      time.Now,
	}
}

// Run evicts idle buckets until ctx is done.
func (r *RateLimiter) Run(ctx context.Context) {
	t := time.NewTicker(r.cleanInt)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.evict()
		}
	}
}

// perToken is the refill interval of one token.
func (r *RateLimiter) perToken() time.Duration { return time.Minute / time.Duration(r.rpm) }

// evict drops the buckets that have refilled completely; a fresh bucket
// would be identical.
func (r *RateLimiter) evict() int {
	if r.rpm <= 0 {
		return 0
	}
	now := r.now()
	full := r.perToken() * time.Duration(r.burst)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, b := range r.buckets {
		if now.Sub(b.last) >= full {
			delete(r.buckets, k)
			n++
		}
	}
	return n
}

// Allow spends one token from key's bucket.
func (r *RateLimiter) Allow(key string) bool {
	if r.rpm <= 0 {
		return true
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(r.burst), last: now}
		r.buckets[key] = b
	}
	if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens = min(float64(r.burst), b.tokens+elapsed.Minutes()*float64(r.rpm))
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is the wait, in whole seconds, until a drained bucket holds
// a token again.
func (r *RateLimiter) RetryAfter() int {
	if r.rpm <= 0 {
		return 0
	}
	return int(math.Ceil(r.perToken().Seconds()))
}

// -------- Client address --------

// ProxyTrust lists the reverse proxies whose X-Forwarded-For is honoured.
type ProxyTrust struct {
	nets []*net.IPNet
}

func NewProxyTrust(cidrs []string) (*ProxyTrust, error) {
	var nets []*net.IPNet
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(strings.TrimSpace(c))
		if err != nil {
			return nil, err
		}
		nets = append(nets, n)
	}
	return &ProxyTrust{nets: nets}, nil
}

func (pt *ProxyTrust) isTrusted(ip net.IP) bool {
	for _, n := range pt.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func getClientIP(r *http.Request, pt *ProxyTrust) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remote := net.ParseIP(host)
	if remote == nil {
		return nil
	}

	if pt != nil && pt.isTrusted(remote) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip
			}
		}
	}
	return remote
}

// clientKey is the in-memory rate limit key for r; addresses are never logged.
func clientKey(r *http.Request, pt *ProxyTrust) string {
	ip := getClientIP(r, pt)
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}
