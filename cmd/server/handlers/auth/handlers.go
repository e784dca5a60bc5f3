package auth

import (
	"context"
	"net/http"

	"note-taker/cmd/server/handlers/handlerutil"
	"note-taker/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthService is what the auth routes need from the auth service.
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error)
	Me(ctx context.Context, userID bson.ObjectID) (*auth.User, error)
}

// Handlers serves sign-up, sign-in and /me.
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{authService: authService, validator: validator}
}

// SignUp handles user registration
// @Summary Register a new user
// @Description Creates the account together with its default categories
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-up [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SignUp"); err != nil {
		return err
	}

	resp, err := h.authService.SignUp(c.Context(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "SignUp", bson.ObjectID{}, nil,
			handlerutil.BadRequest(auth.ErrRegistrationFailed))
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

// SignIn handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Sign in request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-in [post]
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SignIn"); err != nil {
		return err
	}

	resp, err := h.authService.SignIn(c.Context(), req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "SignIn", bson.ObjectID{}, nil,
			handlerutil.Known{Err: auth.ErrInvalidCredentials, Status: http.StatusUnauthorized})
	}
	return c.JSON(resp)
}

// Me returns the current user.
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Failure 401 {object} httperr.E
// @Router /me [get]
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Context(), userID)
	if err != nil {
		// a valid token for a deleted account is as good as no token
		return handlerutil.HandleServiceError(err, "Me", userID, nil,
			handlerutil.Known{Err: auth.ErrUserNotFound, Status: http.StatusUnauthorized})
	}
	return c.JSON(user)
}
