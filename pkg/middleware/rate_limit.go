package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/router"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client address.
type IPRateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	trustProxy bool
	log        *logger.Logger
	stopCh     chan struct{}
	once       sync.Once
}

// NewIPRateLimiter allows perMinute requests per address with the given
// burst. With trustProxy the first X-Forwarded-For hop identifies the client.
func NewIPRateLimiter(perMinute, burst int, trustProxy bool, log *logger.Logger) *IPRateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	limiter := &IPRateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(float64(perMinute) / 60),
		burst:      burst,
		trustProxy: trustProxy,
		log:        log,
		stopCh:     make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *IPRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// ClientIP returns the address a request is attributed to.
func (rl *IPRateLimiter) ClientIP(r *http.Request) string {
	if rl.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Throttle is the route middleware registered as "throttle" on login,
// registration and booking submissions.
func (rl *IPRateLimiter) Throttle() router.Middleware {
	return func(w http.ResponseWriter, r *http.Request) (bool, error) {
		ip := rl.ClientIP(r)
		if rl.Allow(ip) {
			return false, nil
		}

		rl.log.Warn("Rate limit exceeded",
			"request_id", requestID(r),
			"ip", ip,
			"path", r.URL.Path,
		)
		w.Header().Set("Retry-After", "60")
		return false, apperrors.TooManyRequests("Too many attempts. Please wait a minute and try again.")
	}
}
