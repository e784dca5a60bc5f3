package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// baseValidConfig returns a fully-valid configuration object that callers
// can tweak inside table tests.
func baseValidConfig() Config {
	return Config{
		AppPort:            8080,
		BcryptCost:         12,
		SignInRatePerMin:   5,
		LogLevel:           "info",
		LogFormat:          "json",
		MongoURI:           "mongodb://localhost:27017",
		MongoDBName:        "test",
		JWTSecret:          "this-is-a-super-secret-jwt-key-with-32-plus-chars",
		JWTAlgorithm:       "HS256",
		AccessTokenMinutes: 15,
		APIBaseURL:         "http://localhost:8080/api/v1",
		APITimeoutSec:      5,
		APIRetryAttempts:   2,
		AutosaveQuietMS:    800,
		EventBuffer:        16,
		CredentialsBackend: CredentialsFile,
		CredentialsFile:    "creds.yaml",
		RedisAddr:          "localhost:6379",
		LocalStoreFile:     "notes.yaml",
	}
}

// clearConfigEnvVars removes every environment variable that the Config loader
// consumes so each test starts with a clean slate.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_PORT",
		"BCRYPT_COST",
		"SIGNIN_RATE_PER_MIN",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MONGO_URI",
		"MONGO_DB_NAME",
		"JWT_SECRET",
		"JWT_ALGORITHM",
		"ACCESS_TOKEN_MINUTES",
		"ROUTE_METRICS_ENABLED",
		"REQUEST_LOGGING_ENABLED",
		"API_BASE_URL",
		"API_TIMEOUT_SEC",
		"API_RETRY_ATTEMPTS",
		"AUTOSAVE_QUIET_MS",
		"EVENT_BUFFER",
		"CREDENTIALS_BACKEND",
		"CREDENTIALS_FILE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"LOCAL_STORE_FILE",
	} {
		if err := os.Unsetenv(k); err != nil {
			t.Logf("warning: failed to unset %s: %v", k, err)
		}
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.SignInRatePerMin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "notetaker", cfg.MongoDBName)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 1440, cfg.AccessTokenMinutes)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIBaseURL)
	assert.Equal(t, uint(2), cfg.APIRetryAttempts)
	assert.Equal(t, 800*time.Millisecond, cfg.AutosaveQuiet())
	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Equal(t, 64, cfg.EventBuffer)
	assert.Equal(t, CredentialsFile, cfg.CredentialsBackend)
	assert.False(t, cfg.RequestLoggingEnabled)
	assert.True(t, cfg.RouteMetricsEnabled)
}

func TestConfigLoadWithOverride(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("APP_PORT", "9999")
	t.Setenv("AUTOSAVE_QUIET_MS", "250")
	t.Setenv("CREDENTIALS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.AppPort)
	assert.Equal(t, 250*time.Millisecond, cfg.AutosaveQuiet())
	assert.Equal(t, CredentialsRedis, cfg.CredentialsBackend)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigLoadInvalidEnv(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("CREDENTIALS_BACKEND", "keychain")

	_, err := Load()
	require.ErrorIs(t, err, ErrCredentialsBackend)
}

func TestConfigCaching(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	cfg1, err := Load()
	require.NoError(t, err)

	// second call should hit the cache
	t.Setenv("APP_PORT", "7000")
	cfg2, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg1, cfg2)
}

// -----------------------------------------------------------------------------
// Validate() unit tests (table-driven)
// -----------------------------------------------------------------------------

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "memory backend needs nothing else", modify: func(c *Config) {
			c.CredentialsBackend = CredentialsMemory
			c.CredentialsFile = ""
			c.RedisAddr = ""
		}},
		{name: "backend is case insensitive", modify: func(c *Config) { c.CredentialsBackend = "Redis" }},
		{name: "invalid port - zero", modify: func(c *Config) { c.AppPort = 0 }, wantErr: ErrAppPortRange},
		{name: "invalid port - too high", modify: func(c *Config) { c.AppPort = 70000 }, wantErr: ErrAppPortRange},
		{name: "bcrypt cost too low", modify: func(c *Config) { c.BcryptCost = 7 }, wantErr: ErrBcryptCostRange},
		{name: "bcrypt cost too high", modify: func(c *Config) { c.BcryptCost = 17 }, wantErr: ErrBcryptCostRange},
		{name: "signin rate too low", modify: func(c *Config) { c.SignInRatePerMin = 0 }, wantErr: ErrSignInRatePerMin},
		{name: "empty log level", modify: func(c *Config) { c.LogLevel = "" }, wantErr: ErrLogLevelEmpty},
		{name: "empty log format", modify: func(c *Config) { c.LogFormat = "" }, wantErr: ErrLogFormatEmpty},
		{name: "empty mongo uri", modify: func(c *Config) { c.MongoURI = "" }, wantErr: ErrMongoURIEmpty},
		{name: "empty mongo db name", modify: func(c *Config) { c.MongoDBName = "" }, wantErr: ErrMongoDBNameEmpty},
		{name: "empty JWT secret", modify: func(c *Config) { c.JWTSecret = "" }, wantErr: ErrJWTSecretRequired},
		{name: "JWT secret too short", modify: func(c *Config) { c.JWTSecret = "short" }, wantErr: ErrJWTSecretTooShort},
		{name: "invalid JWT algorithm", modify: func(c *Config) { c.JWTAlgorithm = "RS256" }, wantErr: ErrJWTAlgorithmUnsupported},
		{name: "zero token lifetime", modify: func(c *Config) { c.AccessTokenMinutes = 0 }, wantErr: ErrAccessTokenMinutes},
		{name: "empty api base url", modify: func(c *Config) { c.APIBaseURL = "" }, wantErr: ErrAPIBaseURLEmpty},
		{name: "zero api timeout", modify: func(c *Config) { c.APITimeoutSec = 0 }, wantErr: ErrAPITimeout},
		{name: "zero autosave quiet", modify: func(c *Config) { c.AutosaveQuietMS = 0 }, wantErr: ErrAutosaveQuiet},
		{name: "zero event buffer", modify: func(c *Config) { c.EventBuffer = 0 }, wantErr: ErrEventBuffer},
		{name: "unknown backend", modify: func(c *Config) { c.CredentialsBackend = "vault" }, wantErr: ErrCredentialsBackend},
		{name: "file backend without path", modify: func(c *Config) { c.CredentialsFile = "" }, wantErr: ErrCredentialsFileEmpty},
		{name: "redis backend without addr", modify: func(c *Config) {
			c.CredentialsBackend = CredentialsRedis
			c.RedisAddr = ""
		}, wantErr: ErrRedisAddrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
