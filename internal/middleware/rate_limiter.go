package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rmitchellscott/qdither/internal/logging"
)

// IPRateLimiter keeps a token bucket per client IP
type IPRateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
}

// NewIPRateLimiter allows perSecond requests per client with the given burst
func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
	}
}

// limiterFor returns the limiter for an IP, creating it on first use
func (l *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	if val, ok := l.limiters.Load(ip); ok {
		return val.(*rate.Limiter)
	}
	val, _ := l.limiters.LoadOrStore(ip, rate.NewLimiter(l.limit, l.burst))
	return val.(*rate.Limiter)
}

// Allow reports whether a request from ip may proceed now
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiterFor(ip).Allow()
}

// RateLimit is a middleware that rejects clients exceeding their budget with 429
func (l *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			logging.WarnWithComponent(logging.ComponentPreview, "Rate limit exceeded",
				"ip", c.ClientIP(), "path", c.Request.URL.Path)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
