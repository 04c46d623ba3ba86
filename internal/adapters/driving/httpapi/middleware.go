package httpapi

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// rateLimiter keeps one token bucket per client IP. Buckets that go unused
// for the idle TTL are evicted by go-cache.
type rateLimiter struct {
	limiters *cache.Cache
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

func newRateLimiter(rps float64, burst int, idleTTL time.Duration) *rateLimiter {
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	if idleTTL <= 0 {
		idleTTL = defaultLimiterIdleTTL
	}
	return &rateLimiter{
		limiters: cache.New(idleTTL, idleTTL/2),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
	}
}

// limiter returns the bucket for key and refreshes its expiry.
func (r *rateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := r.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		r.limiters.Set(key, l, r.idleTTL)
		return l
	}
	l := rate.NewLimiter(r.rps, r.burst)
	if err := r.limiters.Add(key, l, r.idleTTL); err != nil {
		// Another request created it first.
		if v, ok := r.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (r *rateLimiter) handler(c *fiber.Ctx) error {
	res := r.limiter(c.IP()).Reserve()
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		return domain.ErrRateLimited
	}
	return c.Next()
}

// accessLog writes one structured line per request.
func accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Run the error handler now so the logged status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.Zap().Info("request",
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		)
		return nil
	}
}
