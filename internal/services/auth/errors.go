package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrGenAccessToken is returned when we cannot create a JWT.
var ErrGenAccessToken = errors.New("failed to generate access token")

// ErrRegistrationFailed hides whether the email is already taken.
var ErrRegistrationFailed = errors.New("registration failed")

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrDuplicate is returned by UsersRepo.Create for an email that is already registered.
var ErrDuplicate = errors.New("user with this email already exists")

// ErrUserNotFound is returned by repositories when no user matches.
var ErrUserNotFound = errors.New("user not found")

// ErrUnsupportedAlgorithm is returned for a JWT_ALGORITHM we cannot sign with.
var ErrUnsupportedAlgorithm = errors.New("unsupported JWT algorithm")

// ErrInvalidTokenMissingUserID is returned when a verified token has no user_id claim.
var ErrInvalidTokenMissingUserID = fiber.NewError(fiber.StatusUnauthorized, "invalid token: missing user_id")

// ErrInvalidTokenMissingEmail is returned when a verified token has no email claim.
var ErrInvalidTokenMissingEmail = fiber.NewError(fiber.StatusUnauthorized, "invalid token: missing email")

// ErrUnauthorized turns a JWT middleware failure into a 401.
func ErrUnauthorized(err error) error {
	msg := "Unauthorized"
	if err != nil {
		msg = err.Error()
	}
	return fiber.NewError(fiber.StatusUnauthorized, msg)
}
