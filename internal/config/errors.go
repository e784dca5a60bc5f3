package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 10 and 16")
	ErrSignInRatePerMin        = errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrAccessTokenMinutes      = errors.New("ACCESS_TOKEN_MINUTES must be greater than 0")
	ErrAPIBaseURLEmpty         = errors.New("API_BASE_URL cannot be empty")
	ErrAPITimeout              = errors.New("API_TIMEOUT_SEC must be greater than 0")
	ErrAutosaveQuiet           = errors.New("AUTOSAVE_QUIET_MS must be greater than 0")
	ErrEventBuffer             = errors.New("EVENT_BUFFER must be greater than 0")
	ErrCredentialsBackend      = errors.New("CREDENTIALS_BACKEND must be one of file, redis, memory")
	ErrCredentialsFileEmpty    = errors.New("CREDENTIALS_FILE cannot be empty for the file backend")
	ErrRedisAddrEmpty          = errors.New("REDIS_ADDR cannot be empty for the redis backend")
)
