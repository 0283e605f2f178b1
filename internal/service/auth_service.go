package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"gate-service/internal/auth"
	"gate-service/internal/model"
)

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	CountByUsername(ctx context.Context, username string) (int64, error)
}

type AuthService struct {
	users  userStore
	issuer *auth.Issuer
	log    zerolog.Logger
}

func NewAuthService(users userStore, issuer *auth.Issuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		issuer: issuer,
		log:    log,
	}
}

// Login verifies credentials and returns the user with a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("%w: please provide username and password", ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, "", err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

type RegisterInput struct {
	Username string
	Password string
	FullName string
	Role     string
}

// Register creates a new staff account. Role defaults to sewadar when absent.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" || strings.TrimSpace(input.FullName) == "" {
		return nil, fmt.Errorf("%w: please fill all fields", ErrInvalidInput)
	}

	role := model.RoleSewadar
	if input.Role != "" {
		switch model.Role(input.Role) {
		case model.RoleAdmin, model.RoleSewadar:
			role = model.Role(input.Role)
		default:
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
		}
	}

	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

type UpdateProfileInput struct {
	Username string
	FullName string
	Password string
}

// UpdateProfile lets a logged-in user change their own name or password.
func (s *AuthService) UpdateProfile(ctx context.Context, principal model.Principal, input UpdateProfileInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	if username := strings.TrimSpace(input.Username); username != "" {
		user.Username = username
	}
	if fullName := strings.TrimSpace(input.FullName); fullName != "" {
		user.FullName = fullName
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SeedAdmin creates the configured admin account on first start. Skipped when
// credentials are not configured or the user already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.log.Info().Msg("admin seed skipped: ADMIN_USERNAME/ADMIN_PASSWORD not set")
		return nil
	}

	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     username,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	s.log.Info().Str("username", username).Msg("admin account seeded")
	return nil
}
