package web

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	mw "github.com/JonMunkholm/cardadmin/internal/web/middleware"
)

// rateLimiter allows rate requests per window for each client address.
// Stale entries are swept while serving, at most once per window.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	remaining int
	resetAt   time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

// allow consumes one request for key. When it reports false, retry is the
// time left until the window resets.
func (rl *rateLimiter) allow(key string) (ok bool, retry time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.window {
		for k, v := range rl.visitors {
			if now.After(v.resetAt) {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, exists := rl.visitors[key]
	if !exists || now.After(v.resetAt) {
		rl.visitors[key] = &visitor{remaining: rl.rate - 1, resetAt: now.Add(rl.window)}
		return true, 0
	}
	if v.remaining <= 0 {
		return false, v.resetAt.Sub(now)
	}
	v.remaining--
	return true, 0
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if addr, ok := mw.ClientAddr(r.RemoteAddr); ok {
			key = addr.String()
		}

		if ok, retry := rl.allow(key); !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
