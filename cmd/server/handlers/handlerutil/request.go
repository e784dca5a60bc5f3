package handlerutil

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"note-taker/cmd/server/ctxkeys"
	"note-taker/cmd/server/handlers/httperr"
	"note-taker/internal/logger"
	"note-taker/internal/utils/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NewValidator returns the request validator: the password rule is
// registered and errors name fields by their JSON key.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Known pairs a service sentinel error with the HTTP status it maps to.
type Known struct {
	Err    error
	Status int
}

// NotFound maps err to 404.
func NotFound(err error) Known { return Known{Err: err, Status: http.StatusNotFound} }

// BadRequest maps err to 400.
func BadRequest(err error) Known { return Known{Err: err, Status: http.StatusBadRequest} }

func NotFoundError(err error) error {
	return httperr.Fail(httperr.E{
		Status:  http.StatusNotFound,
		Message: err.Error(),
	})
}

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "userIDStr", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// ParseAndValidateBody parses the JSON body into req and validates it.
func ParseAndValidateBody(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	return parseAndValidate(c, req, v, handlerName, c.BodyParser)
}

// ParseAndValidateQuery parses the query string into req and validates it.
func ParseAndValidateQuery(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	return parseAndValidate(c, req, v, handlerName, c.QueryParser)
}

func parseAndValidate(c *fiber.Ctx, req any, v *validator.Validate, handlerName string, parse func(any) error) error {
	// auth routes have no user yet
	userID, _ := c.Locals(ctxkeys.UserIDKey).(string)

	if err := parse(req); err != nil {
		logger.L().Warn("failed to parse request", "handler", handlerName, "userID", userID, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}
	if err := v.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userID, "error", err)
		return httperr.InvalidInput(err)
	}
	return nil
}

// ExtractID parses the ":id" path parameter. A missing or malformed id is reported
// as notFoundErr so probing foreign ids and garbage look the same.
func ExtractID(c *fiber.Ctx, userID bson.ObjectID, handlerName string, notFoundErr error) (bson.ObjectID, error) {
	idStr := c.Params("id")
	if idStr == "" {
		logger.L().Warn("missing id parameter", "handler", handlerName, "userID", userID.Hex(), "path", c.Path())
		return bson.ObjectID{}, NotFoundError(notFoundErr)
	}

	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		logger.L().Warn("invalid id parameter", "handler", handlerName, "userID", userID.Hex(), "idStr", idStr, "error", err)
		return bson.ObjectID{}, NotFoundError(notFoundErr)
	}

	return id, nil
}

// HandleServiceError translates a service error into an httperr.E.
// Errors not listed in known become an opaque 500. A zero userID is omitted
// from the log.
func HandleServiceError(err error, handlerName string, userID bson.ObjectID, resourceID *bson.ObjectID, known ...Known) error {
	logFields := []any{"handler", handlerName, "error", err}
	if !userID.IsZero() {
		logFields = append(logFields, "userID", userID.Hex())
	}
	if resourceID != nil {
		logFields = append(logFields, "resourceID", resourceID.Hex())
	}

	for _, k := range known {
		if errors.Is(err, k.Err) {
			logger.L().Info("request rejected by service", logFields...)
			return httperr.Fail(httperr.E{
				Status:  k.Status,
				Message: k.Err.Error(),
			})
		}
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.ErrInternal)
}
