// Package testutil builds fiber apps, tokens and requests for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"note-taker/cmd/server/handlers/handlerutil"
	"note-taker/cmd/server/handlers/httperr"
	"note-taker/cmd/server/middlewares"
	"note-taker/internal/config"
	"note-taker/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// JWTSecret signs every token made here.
const JWTSecret = "handler-tests-secret-of-at-least-32-chars"

// CreateTestApp returns an app with the production error handler.
func CreateTestApp(t *testing.T) *fiber.App {
	t.Helper()
	_, err := logger.Init(config.Config{LogLevel: "error", LogFormat: "text"})
	require.NoError(t, err)
	return fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
}

// CreateTestValidator returns the validator the router uses.
func CreateTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v, err := handlerutil.NewValidator()
	require.NoError(t, err)
	return v
}

// CreateTestJWT signs an HS256 token carrying the claims middlewares.JWT reads.
func CreateTestJWT(userID, email string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(expiry).Unix(),
	}).SignedString(secret)
}

// SetupJWTMiddleware returns the production JWT middleware for secret.
func SetupJWTMiddleware(secret string) fiber.Handler {
	return middlewares.JWT(config.Config{JWTSecret: secret})
}

// CreateRateLimiter returns the production rate limiter.
func CreateRateLimiter(max int, window time.Duration) fiber.Handler {
	return middlewares.BuildRateLimiter(max, window)
}

// CreateJSONRequest builds a request with body encoded as JSON; nil sends no body.
func CreateJSONRequest(method, url string, body any) *http.Request {
	var buf []byte
	if body != nil {
		buf, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateAuthenticatedRequest is CreateJSONRequest with a bearer token.
func CreateAuthenticatedRequest(method, url string, body any, token string) *http.Request {
	req := CreateJSONRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// User sends requests to an app as one signed-in account.
type User struct {
	ID    bson.ObjectID
	Token string

	t   *testing.T
	app *fiber.App
}

// NewUser signs a token for a fresh account id.
func NewUser(t *testing.T, app *fiber.App) *User {
	t.Helper()
	id := bson.NewObjectID()
	token, err := CreateTestJWT(id.Hex(), id.Hex()+"@example.com", []byte(JWTSecret), time.Hour)
	require.NoError(t, err)
	return &User{ID: id, Token: token, t: t, app: app}
}

// Do sends an authenticated JSON request.
func (u *User) Do(method, url string, body any) *http.Response {
	u.t.Helper()
	resp, err := u.app.Test(CreateAuthenticatedRequest(method, url, body, u.Token), -1)
	require.NoError(u.t, err)
	return resp
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
