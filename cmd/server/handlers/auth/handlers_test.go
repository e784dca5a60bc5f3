package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"note-taker/cmd/server/testutil"
	"note-taker/internal/services/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	email    = "ada@example.com"
	password = "Password123"
)

// MockAuthService mocks the auth service
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID bson.ObjectID) (*auth.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

type authTestSetup struct {
	svc  *MockAuthService
	app  *fiber.App
	user *auth.User
}

// setupAuthTest mounts the auth routes the way the router does, with sign-in
// limited to two attempts a minute.
func setupAuthTest(t *testing.T) *authTestSetup {
	t.Helper()

	svc := &MockAuthService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(svc, testutil.CreateTestValidator(t))

	v1 := app.Group("/api/v1")
	v1.Post("/auth/sign-up", h.SignUp)
	v1.Post("/auth/sign-in", testutil.CreateRateLimiter(2, time.Minute), h.SignIn)
	v1.Get("/me", testutil.SetupJWTMiddleware(testutil.JWTSecret), h.Me)

	now := time.Now().UTC()
	return &authTestSetup{
		svc:  svc,
		app:  app,
		user: &auth.User{ID: bson.NewObjectID(), Email: email, CreatedAt: now, UpdatedAt: now},
	}
}

func (s *authTestSetup) post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	resp, err := s.app.Test(testutil.CreateJSONRequest("POST", url, body), -1)
	require.NoError(t, err)
	return resp
}

func TestSignUp(t *testing.T) {
	valid := map[string]string{"email": email, "password": password}

	tests := []struct {
		name       string
		body       any
		svcErr     error
		callsSvc   bool
		wantStatus int
	}{
		{name: "created", body: valid, callsSvc: true, wantStatus: http.StatusCreated},
		{name: "duplicate email", body: valid, svcErr: auth.ErrRegistrationFailed, callsSvc: true, wantStatus: http.StatusBadRequest},
		{name: "token failure is internal", body: valid, svcErr: auth.ErrGenAccessToken, callsSvc: true, wantStatus: http.StatusInternalServerError},
		{name: "weak password", body: map[string]string{"email": email, "password": "short"}, wantStatus: http.StatusBadRequest},
		{name: "invalid email", body: map[string]string{"email": "ada", "password": password}, wantStatus: http.StatusBadRequest},
		{name: "no body", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupAuthTest(t)
			if tt.callsSvc {
				var out *auth.AuthResponse
				if tt.svcErr == nil {
					out = &auth.AuthResponse{User: s.user, Token: "signed"}
				}
				s.svc.On("SignUp", mock.Anything, auth.SignUpRequest{Email: email, Password: password}).
					Return(out, tt.svcErr).Once()
			}

			resp := s.post(t, "/api/v1/auth/sign-up", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusCreated {
				var got auth.AuthResponse
				testutil.DecodeJSON(t, resp, &got)
				assert.Equal(t, email, got.User.Email)
				assert.Equal(t, "signed", got.Token)
			}
			s.svc.AssertExpectations(t)
		})
	}
}

func TestSignIn(t *testing.T) {
	req := auth.SignInRequest{Email: email, Password: password}
	body := map[string]string{"email": email, "password": password}

	t.Run("returns a token", func(t *testing.T) {
		s := setupAuthTest(t)
		s.svc.On("SignIn", mock.Anything, req).Return(&auth.AuthResponse{User: s.user, Token: "signed"}, nil).Once()

		resp := s.post(t, "/api/v1/auth/sign-in", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got auth.AuthResponse
		testutil.DecodeJSON(t, resp, &got)
		assert.Equal(t, s.user.ID, got.User.ID)
		assert.Equal(t, "signed", got.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		s := setupAuthTest(t)
		s.svc.On("SignIn", mock.Anything, req).Return(nil, auth.ErrInvalidCredentials).Once()

		resp := s.post(t, "/api/v1/auth/sign-in", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("no body", func(t *testing.T) {
		s := setupAuthTest(t)

		resp := s.post(t, "/api/v1/auth/sign-in", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		s.svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
	})
}

func TestSignInRateLimit(t *testing.T) {
	s := setupAuthTest(t)
	body := map[string]string{"email": email, "password": password}
	s.svc.On("SignIn", mock.Anything, auth.SignInRequest{Email: email, Password: password}).
		Return(nil, auth.ErrInvalidCredentials).Times(2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, s.post(t, "/api/v1/auth/sign-in", body).StatusCode)
	}

	resp := s.post(t, "/api/v1/auth/sign-in", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// sign-up is not behind the sign-in limiter
	s.svc.On("SignUp", mock.Anything, mock.Anything).Return(&auth.AuthResponse{User: s.user, Token: "signed"}, nil).Once()
	assert.Equal(t, http.StatusCreated, s.post(t, "/api/v1/auth/sign-up", body).StatusCode)

	s.svc.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	tests := []struct {
		name       string
		svcUser    bool
		svcErr     error
		noToken    bool
		wantStatus int
	}{
		{name: "returns the user", svcUser: true, wantStatus: http.StatusOK},
		{name: "deleted account", svcErr: auth.ErrUserNotFound, wantStatus: http.StatusUnauthorized},
		{name: "missing token", noToken: true, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupAuthTest(t)

			req := testutil.CreateJSONRequest("GET", "/api/v1/me", nil)
			if !tt.noToken {
				token, err := testutil.CreateTestJWT(s.user.ID.Hex(), email, []byte(testutil.JWTSecret), time.Hour)
				require.NoError(t, err)
				req = testutil.CreateAuthenticatedRequest("GET", "/api/v1/me", nil, token)

				var out *auth.User
				if tt.svcUser {
					out = s.user
				}
				s.svc.On("Me", mock.Anything, s.user.ID).Return(out, tt.svcErr).Once()
			}

			resp, err := s.app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.svcUser {
				var got auth.User
				testutil.DecodeJSON(t, resp, &got)
				assert.Equal(t, s.user.ID, got.ID)
				assert.Equal(t, email, got.Email)
			}
			s.svc.AssertExpectations(t)
		})
	}
}
