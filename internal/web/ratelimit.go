package web

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// rateLimiter is a fixed-window limiter keyed by client IP. Idle visitors
// expire from the cache after two windows.
type rateLimiter struct {
	bucket   string
	rate     int
	window   time.Duration
	visitors *ttlcache.Cache[string, *visitor]
	onReject func(bucket string)
	now      func() time.Time
}

type visitor struct {
	mu        sync.Mutex
	tokens    int
	lastReset time.Time
}

func newRateLimiter(bucket string, rate int, window time.Duration) *rateLimiter {
	cache := ttlcache.New[string, *visitor](
		ttlcache.WithTTL[string, *visitor](2 * window),
	)
	go cache.Start()

	return &rateLimiter{
		bucket:   bucket,
		rate:     rate,
		window:   window,
		visitors: cache,
		now:      time.Now,
	}
}

func (rl *rateLimiter) stop() {
	rl.visitors.Stop()
}

// allow consumes a token for ip and reports whether the request may proceed.
func (rl *rateLimiter) allow(ip string) bool {
	now := rl.now()
	item, _ := rl.visitors.GetOrSet(ip, &visitor{tokens: rl.rate, lastReset: now})
	v := item.Value()

	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastReset) > rl.window {
		v.tokens = rl.rate
		v.lastReset = now
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// retryAfter is the number of seconds until ip's window resets.
func (rl *rateLimiter) retryAfter(ip string) int {
	item := rl.visitors.Get(ip, ttlcache.WithDisableTouchOnHit[string, *visitor]())
	if item == nil {
		return 1
	}
	v := item.Value()
	v.mu.Lock()
	defer v.mu.Unlock()

	secs := int(v.lastReset.Add(rl.window).Sub(rl.now()).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// middleware rate limits by client IP. TrustedRealIP must run first so
// RemoteAddr holds the real client.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			if rl.onReject != nil {
				rl.onReject(rl.bucket)
			}
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(ip)))
			respondStatus(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
