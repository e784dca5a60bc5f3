package middlewares

import (
	"net/http/httptest"
	"testing"
	"time"

	"note-taker/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(max int) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
	auth := app.Group("/auth", BuildRateLimiter(max, time.Minute))
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	auth.Post("/sign-in", ok)
	auth.Post("/sign-up", ok)
	return app
}

func post(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, path, nil), -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestBuildRateLimiterPerRoute(t *testing.T) {
	app := newLimitedApp(2)

	assert.Equal(t, 200, post(t, app, "/auth/sign-in"))
	assert.Equal(t, 200, post(t, app, "/auth/sign-in"))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/auth/sign-in", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	assert.Equal(t, 200, post(t, app, "/auth/sign-up"), "sign-up has its own bucket")
}

func TestBuildRateLimiterDisabled(t *testing.T) {
	app := newLimitedApp(0)
	for range 10 {
		assert.Equal(t, 200, post(t, app, "/auth/sign-in"))
	}
}
