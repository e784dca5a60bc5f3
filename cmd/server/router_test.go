package main

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"note-taker/internal/config"
	"note-taker/internal/logger"
	authServices "note-taker/internal/services/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		SignInRatePerMin:    2,
		LogLevel:            "error",
		LogFormat:           "text",
		JWTSecret:           "test-secret-with-32-plus-characters",
		JWTAlgorithm:        "HS256",
		RouteMetricsEnabled: true,
	}
}

func TestRequestLoggingConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{
			name:     "request logging disabled",
			envValue: "false",
			expected: false,
		},
		{
			name:     "request logging enabled",
			envValue: "true",
			expected: true,
		},
		{
			name:     "default value (no env var)",
			envValue: "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				_ = os.Unsetenv("REQUEST_LOGGING_ENABLED")
				config.ResetCache()
			}()

			if tt.envValue != "" {
				err := os.Setenv("REQUEST_LOGGING_ENABLED", tt.envValue)
				require.NoError(t, err)
			}

			config.ResetCache()

			cfg, err := config.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.expected, cfg.RequestLoggingEnabled,
				"RequestLoggingEnabled should be %v when REQUEST_LOGGING_ENABLED=%s",
				tt.expected, tt.envValue)
		})
	}
}

func TestNewAppRejectsUnsupportedAlgorithm(t *testing.T) {
	_, _ = logger.Init(testConfig())

	cfg := testConfig()
	cfg.JWTAlgorithm = "RS256"

	_, err := newApp(cfg, services{})
	assert.ErrorIs(t, err, authServices.ErrUnsupportedAlgorithm)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, _ = logger.Init(testConfig())
	app, err := newApp(testConfig(), services{})
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{"GET", "/api/v1/me"},
		{"GET", "/api/v1/notes"},
		{"POST", "/api/v1/notes"},
		{"POST", "/api/v1/notes/bulk-move"},
		{"PATCH", "/api/v1/notes/683cdb8aa96ad71e8e075bd1"},
		{"DELETE", "/api/v1/notes/683cdb8aa96ad71e8e075bd1"},
		{"GET", "/api/v1/categories"},
		{"POST", "/api/v1/categories"},
		{"PATCH", "/api/v1/categories/683cdb8aa96ad71e8e075bd1"},
		{"DELETE", "/api/v1/categories/683cdb8aa96ad71e8e075bd1"},
		{"POST", "/api/v1/categories/683cdb8aa96ad71e8e075bd1/delete-with-notes"},
		{"POST", "/api/v1/categories/683cdb8aa96ad71e8e075bd1/move-notes-and-delete"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(r.method, r.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, 401, resp.StatusCode)
		})
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	_, _ = logger.Init(testConfig())
	app, err := newApp(testConfig(), services{})
	require.NoError(t, err)

	// Invalid bodies never reach the service but still count against the limit.
	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("POST", "/api/v1/auth/sign-in", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{400, 400, 429}, statuses)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _ = logger.Init(testConfig())
	app, err := newApp(testConfig(), services{})
	require.NoError(t, err)

	_, err = app.Test(httptest.NewRequest("GET", "/api/v1/notes", nil), -1)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
