package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration, shared by the server and the notes CLI.
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	AccessTokenMinutes    int    `mapstructure:"ACCESS_TOKEN_MINUTES"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`

	// Client side
	APIBaseURL         string `mapstructure:"API_BASE_URL"`
	APITimeoutSec      int    `mapstructure:"API_TIMEOUT_SEC"`
	APIRetryAttempts   uint   `mapstructure:"API_RETRY_ATTEMPTS"`
	AutosaveQuietMS    int    `mapstructure:"AUTOSAVE_QUIET_MS"`
	EventBuffer        int    `mapstructure:"EVENT_BUFFER"`
	CredentialsBackend string `mapstructure:"CREDENTIALS_BACKEND"`
	CredentialsFile    string `mapstructure:"CREDENTIALS_FILE"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	LocalStoreFile     string `mapstructure:"LOCAL_STORE_FILE"`
}

// Credential store backends
const (
	CredentialsFile   = "file"
	CredentialsRedis  = "redis"
	CredentialsMemory = "memory"
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// A missing .env is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "notetaker")
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 60*24)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", false)

	v.SetDefault("API_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("API_TIMEOUT_SEC", 10)
	v.SetDefault("API_RETRY_ATTEMPTS", 2)
	v.SetDefault("AUTOSAVE_QUIET_MS", 800)
	v.SetDefault("EVENT_BUFFER", 64)
	v.SetDefault("CREDENTIALS_BACKEND", CredentialsFile)
	v.SetDefault("CREDENTIALS_FILE", ".notetaker/credentials.yaml")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCAL_STORE_FILE", ".notetaker/notes.yaml")
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// AutosaveQuiet is the debounce quiet period of the note editor.
func (c Config) AutosaveQuiet() time.Duration {
	return time.Duration(c.AutosaveQuietMS) * time.Millisecond
}

// APITimeout bounds a single persistence call.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSec) * time.Second
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.BcryptCost < 10 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.SignInRatePerMin < 1 {
		return ErrSignInRatePerMin
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.JWTAlgorithm != "HS256" {
		return ErrJWTAlgorithmUnsupported
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.AccessTokenMinutes <= 0 {
		return ErrAccessTokenMinutes
	}
	if c.APIBaseURL == "" {
		return ErrAPIBaseURLEmpty
	}
	if c.APITimeoutSec <= 0 {
		return ErrAPITimeout
	}
	if c.AutosaveQuietMS <= 0 {
		return ErrAutosaveQuiet
	}
	if c.EventBuffer <= 0 {
		return ErrEventBuffer
	}
	switch strings.ToLower(c.CredentialsBackend) {
	case CredentialsFile:
		if c.CredentialsFile == "" {
			return ErrCredentialsFileEmpty
		}
	case CredentialsRedis:
		if c.RedisAddr == "" {
			return ErrRedisAddrEmpty
		}
	case CredentialsMemory:
	default:
		return ErrCredentialsBackend
	}
	return nil
}
