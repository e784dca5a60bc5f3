package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"note-taker/internal/config"
	"note-taker/internal/utils/crypto"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles authentication business logic
type Service struct {
	usersRepo UsersRepo
	seeder    CategorySeeder
	config    config.Config
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a new auth service. seeder may be nil.
func NewService(usersRepo UsersRepo, seeder CategorySeeder, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		usersRepo: usersRepo,
		seeder:    seeder,
		config:    cfg,
		log:       log,
		now:       time.Now,
	}
}

// SignUp registers a new user and seeds the default categories.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.usersRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrRegistrationFailed
	}

	hashedPassword, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, errors.New("failed to process password")
	}

	now := s.now().UTC()
	user := &User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.usersRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrRegistrationFailed
		}
		s.log.Error("failed to create user", "error", err)
		return nil, errors.New("failed to create user")
	}

	if s.seeder != nil {
		// The account is usable without its starter categories.
		if err := s.seeder.SeedDefaults(ctx, user.ID); err != nil {
			s.log.Error("failed to seed default categories", "user_id", user.ID.Hex(), "error", err)
		}
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		return nil, ErrGenAccessToken
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// SignIn authenticates a user
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.usersRepo.FindByEmail(ctx, email)
	if err != nil {
		s.log.Info("sign-in for unknown email", "error", err)
		return nil, ErrInvalidCredentials
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.log.Info("sign-in with wrong password", "user_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateAccessToken(user)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		return nil, ErrGenAccessToken
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Me returns the user behind a verified token.
func (s *Service) Me(ctx context.Context, userID bson.ObjectID) (*User, error) {
	user, err := s.usersRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.log.Error("failed to find user", "user_id", userID.Hex(), "error", err)
		return nil, err
	}
	return user, nil
}

// GenerateAccessToken signs a token carrying user_id and email claims.
func (s *Service) GenerateAccessToken(user *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMinutes) * time.Minute).Unix(),
		"iat":     now.Unix(),
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(s.config.JWTAlgorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	default:
		return "", ErrUnsupportedAlgorithm
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
