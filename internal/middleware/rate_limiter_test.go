package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewIPRateLimiter(0.001, 2)
	router := gin.New()
	router.Use(limiter.RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		if got := request("10.0.0.1"); got != want {
			t.Errorf("request %d: status = %d, want %d", i, got, want)
		}
	}

	if got := request("10.0.0.2"); got != http.StatusOK {
		t.Errorf("other client status = %d, want %d", got, http.StatusOK)
	}
}

func TestAllowCreatesOneLimiterPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	if limiter.limiterFor("a") != limiter.limiterFor("a") {
		t.Error("expected the same limiter for repeated lookups")
	}
	if limiter.limiterFor("a") == limiter.limiterFor("b") {
		t.Error("expected distinct limiters per IP")
	}
}
