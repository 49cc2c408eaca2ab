package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"booknest/internal/config"
	"booknest/internal/database/users"
	"booknest/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrEmailInvalid  = errors.New("invalid email format")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByID(ctx context.Context, id string) (*entities.User, error)
}

// Service verifies credentials and manages user accounts.
type Service struct {
	users  UserRepository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo UserRepository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Register creates a new user with password authentication and returns
// its public record.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entities.PublicUser, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Check if user already exists
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, users.ErrEmailTaken
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	// The unique email index catches registration races the pre-check missed.
	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	public := user.Public()
	return &public, nil
}

// Authenticate validates an email/password pair. It returns nil claims
// without an error when the user is absent, has no password (OAuth-only
// account), or the hash does not match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.Password == "" {
		return nil, nil
	}
	if CheckPassword(password, user.Password) != nil {
		return nil, nil
	}

	return user, nil
}

// LinkOAuthIdentity resolves a federated identity purely by email:
// the first sign-in creates a password-less account, later sign-ins
// reuse the existing record.
func (s *Service) LinkOAuthIdentity(ctx context.Context, email, name string) (*entities.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if name == "" {
		name = email
	}

	user, err = s.users.Create(ctx, name, email, "")
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			// Lost a concurrent first sign-in; the account now exists.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser loads a user by id, used by /auth/me.
func (s *Service) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return s.users.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
