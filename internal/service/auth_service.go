package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"zenith/internal/access"
	"zenith/internal/auth"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/observability"
	"zenith/internal/repository"
	"zenith/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

type AuthService struct {
	userRepo    repository.UserRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	bcryptCost  int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, revocations auth.RevocationStore) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		revocations: revocations,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// HashPassword bcrypt-hashes a plaintext password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewDuplicateError("User", "username", username)
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewDuplicateError("User", "email", email)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		observability.RecordAuth("register", false)
		return nil, err
	}
	observability.RecordAuth("register", true)

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, models.NewValidationError("username or email is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("password is required")
	}

	var (
		user *models.User
		err  error
	)
	if username != "" {
		user, err = s.userRepo.GetByUsername(ctx, username)
	} else {
		user, err = s.userRepo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		observability.RecordAuth("login", false)
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		observability.RecordAuth("login", false)
		middleware.Logger.InfoContext(ctx, "login rejected", slog.Uint64("user_id", uint64(user.ID)))
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	observability.RecordAuth("login", true)

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// Logout revokes token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.NewUnauthorizedError("invalid or expired token")
	}
	if s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return models.NewInternalError(err)
	}
	observability.RecordAuth("logout", true)
	return nil
}

// Authenticate verifies token and resolves it to the stored user, so role
// changes and deletions apply to tokens already issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*access.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			return nil, models.NewInternalError(err)
		}
		observability.RecordAuth("token", false)
		return nil, models.NewUnauthorizedError("invalid or expired token")
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail open when the deny-list is unreachable
			middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			observability.RecordAuth("token", false)
			return nil, models.NewUnauthorizedError("token has been revoked")
		}
	}

	user, err := s.userRepo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != claims.UserID {
		observability.RecordAuth("token", false)
		return nil, models.NewUnauthorizedError("user no longer exists")
	}

	return &access.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}
