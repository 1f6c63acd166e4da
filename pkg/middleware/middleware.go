package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ksred/trade-ledger/pkg/response"
)

// RequestIDHeader carries the id used to correlate a request in the logs
const RequestIDHeader = "X-Request-ID"

// Limits holds per-minute request budgets for each route group
type Limits struct {
	TradesPerMinute float64
	ReadsPerMinute  float64
	AdminPerMinute  float64
	Burst           int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and route
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   Limits
}

func NewRateLimiter(limits Limits) *RateLimiter {
	if limits.Burst < 1 {
		limits.Burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limits:   limits,
	}
}

func (rl *RateLimiter) limitFor(method, path string) rate.Limit {
	perMinute := func(n float64) rate.Limit { return rate.Limit(n / 60.0) }

	switch {
	case strings.HasPrefix(path, "/api/v1/trades"):
		return perMinute(rl.limits.TradesPerMinute)
	case method != "GET":
		return perMinute(rl.limits.AdminPerMinute)
	case strings.HasPrefix(path, "/api/v1"):
		return perMinute(rl.limits.ReadsPerMinute)
	default:
		return rate.Inf
	}
}

func (rl *RateLimiter) getLimiter(method, path, clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientIP + ":" + method + ":" + path
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{
			limiter: rate.NewLimiter(rl.limitFor(method, path), rl.limits.Burst),
		}
		rl.visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Run drops visitors idle for more than three minutes until ctx is done
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup(3 * time.Minute)
		}
	}
}

func (rl *RateLimiter) cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(rl.visitors, key)
		}
	}
}

// Middleware rejects requests over budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.Request.Method, c.FullPath(), c.ClientIP())
		if !limiter.Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request with its status and latency
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request completed")
	}
}
