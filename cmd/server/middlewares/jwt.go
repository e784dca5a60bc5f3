package middlewares

import (
	"note-taker/cmd/server/ctxkeys"
	"note-taker/internal/config"
	"note-taker/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT verifies the bearer token and exposes its user_id and email claims
// under ctxkeys.UserIDKey and ctxkeys.UserEmailKey. Every failure is a 401.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: storeIdentity,
		ErrorHandler: func(_ *fiber.Ctx, err error) error {
			return auth.ErrUnauthorized(err)
		},
	})
}

func storeIdentity(c *fiber.Ctx) error {
	token, _ := c.Locals("user").(*jwt.Token)
	if token == nil {
		return auth.ErrUnauthorized(nil)
	}
	userID, email, err := identity(token.Claims)
	if err != nil {
		return err
	}
	c.Locals(ctxkeys.UserIDKey, userID)
	c.Locals(ctxkeys.UserEmailKey, email)
	return c.Next()
}

func identity(claims jwt.Claims) (userID, email string, err error) {
	m, _ := claims.(jwt.MapClaims)
	if userID, _ = m["user_id"].(string); userID == "" {
		return "", "", auth.ErrInvalidTokenMissingUserID
	}
	if email, _ = m["email"].(string); email == "" {
		return "", "", auth.ErrInvalidTokenMissingEmail
	}
	return userID, email, nil
}
