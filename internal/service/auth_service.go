package service

import (
	"context"
	"errors"
	"strings"

	"github.com/productapp/catalog-backend/internal/domain"
	"github.com/productapp/catalog-backend/internal/observability"
	"github.com/productapp/catalog-backend/internal/repository"
)

var (
	ErrAuthMissingFields  = errors.New("please provide all fields")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthServiceImpl implements email based registration and login. Passwords
// are stored and compared as provided.
//
// TODO: hash passwords with bcrypt once existing rows can be migrated.
type AuthServiceImpl struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthServiceImpl {
	return &AuthServiceImpl{users: users}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*domain.UserSummary, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" || input.Password == "" {
		observability.RecordAuthAttempt(ctx, "register", "bad_request")
		return nil, ErrAuthMissingFields
	}

	user := &domain.User{Username: username, Email: email, Password: input.Password}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			observability.RecordAuthAttempt(ctx, "register", "conflict")
			return nil, ErrUserExists
		}
		observability.RecordAuthAttempt(ctx, "register", "error")
		return nil, err
	}

	observability.RecordAuthAttempt(ctx, "register", "success")
	return user.Summary(), nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, input LoginInput) (*domain.UserSummary, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		observability.RecordAuthAttempt(ctx, "login", "bad_request")
		return nil, ErrAuthMissingFields
	}

	user, err := s.users.FindByCredentials(email, input.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthAttempt(ctx, "login", "rejected")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthAttempt(ctx, "login", "error")
		return nil, err
	}

	observability.RecordAuthAttempt(ctx, "login", "success")
	return user.Summary(), nil
}
