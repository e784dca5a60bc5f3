// Package httperr defines the JSON error body of the API and the global
// fiber error handler producing it.
package httperr

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// E is an API error. Only Message is serialized: {"error": "..."}.
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
}

func (e E) Error() string { return e.Message }

// JSON writes e as the response.
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail hands err to Handler.
func Fail(err E) error { return err }

// New is a shorthand for E{Status: status, Message: message}.
func New(status int, message string) E {
	return E{Status: status, Message: message}
}

var (
	ErrBadRequest      = New(fiber.StatusBadRequest, "Bad Request")
	ErrUnauthorized    = New(fiber.StatusUnauthorized, "Unauthorized")
	ErrTooManyRequests = New(fiber.StatusTooManyRequests, "Too Many Requests")
	ErrInternal        = New(fiber.StatusInternalServerError, "Internal Server Error")
)

// InvalidInput is a 400 naming the offending fields when err comes from the
// validator.
func InvalidInput(err error) error {
	return Fail(New(fiber.StatusBadRequest, "Invalid input: "+describe(err)))
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldName(fe)+" "+rule(fe))
	}
	return strings.Join(parts, "; ")
}

func fieldName(fe validator.FieldError) string {
	if f := fe.Field(); f != "" {
		return strings.ToLower(f[:1]) + f[1:]
	}
	return fe.Namespace()
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "password":
		return "must be at least 8 characters with an uppercase letter, a lowercase letter and a digit"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// Handler is the app-wide fiber error handler.
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return New(fe.Code, fe.Message).JSON(c)
	}
	return ErrInternal.JSON(c)
}
