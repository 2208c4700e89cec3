package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/regbot/config"
	"github.com/use-agent/regbot/models"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = time.Hour
	limiterSweep = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate.
//
// Entries unused for an hour are evicted, at most every five minutes, while
// looking up a limiter.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		limiters  = make(map[string]*limiterEntry)
		lastSweep = time.Now()
	)

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastSweep) > limiterSweep {
			for id, entry := range limiters {
				if now.Sub(entry.lastSeen) > limiterIdle {
					delete(limiters, id)
				}
			}
			lastSweep = now
		}

		entry, ok := limiters[identity]
		if !ok {
			entry = &limiterEntry{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			limiters[identity] = entry
		}
		entry.lastSeen = now
		return entry.limiter
	}

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity := c.GetString(identityKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !getLimiter(identity).Allow() {
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
