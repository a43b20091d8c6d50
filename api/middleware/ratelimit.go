package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/charscrape/config"
	"github.com/use-agent/charscrape/models"
)

// idleAfter is how long a client may go unseen before its bucket is
// dropped.
const idleAfter = time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets maps a client identity to its token bucket.
type buckets struct {
	mu    sync.Mutex
	cfg   config.RateLimitConfig
	byID  map[string]*bucket
	swept time.Time
}

func (b *buckets) get(id string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.swept) > idleAfter/12 {
		for k, e := range b.byID {
			if now.Sub(e.lastSeen) > idleAfter {
				delete(b.byID, k)
			}
		}
		b.swept = now
	}

	e, ok := b.byID[id]
	if !ok {
		e = &bucket{limiter: rate.NewLimiter(rate.Limit(b.cfg.RequestsPerSecond), b.cfg.Burst)}
		b.byID[id] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimit applies a token bucket per API key, or per client IP when
// auth is disabled. Rejections carry a Retry-After header in seconds.
// Idle buckets are swept lazily on access.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	b := &buckets{cfg: cfg, byID: make(map[string]*bucket), swept: time.Now()}

	return func(c *gin.Context) {
		id := c.GetString(KeyContext)
		if id == "" {
			id = c.ClientIP()
		}

		now := time.Now()
		limiter := b.get(id, now)
		if limiter.AllowN(now, 1) {
			c.Next()
			return
		}

		if wait := retryAfter(cfg.RequestsPerSecond); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(wait))
		}
		abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, retry later")
	}
}

// retryAfter is the whole seconds until one token is refilled.
func retryAfter(rps float64) int {
	if rps <= 0 {
		return 0
	}
	return int(math.Ceil(1 / rps))
}
