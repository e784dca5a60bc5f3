package middlewares

import (
	"strconv"
	"time"

	"note-taker/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// BuildRateLimiter allows max requests per client IP and route within each
// expiration window. A max below one disables it.
func BuildRateLimiter(max int, expiration time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	retryAfter := strconv.Itoa(int(expiration.Round(time.Second).Seconds()))
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		// sign-in and sign-up get separate buckets
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + " " + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	})
}
