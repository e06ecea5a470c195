package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/Bhuvanani14/goodcity/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// ErrValidation is returned when input fails a business rule. The
// wrapped message is safe to show to clients.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCredentials is returned for any login failure, regardless of
// which part of the credentials was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
	SetActive(ctx context.Context, id int, active bool) error
	CountActive(ctx context.Context) (int, error)
}

// AuthService encapsulates registration and credential verification.
// Token minting stays at the HTTP layer.
type AuthService struct {
	repo UserRepository
}

func NewAuthService(repo UserRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Register creates an account with a bcrypt-hashed password. Returns
// ErrValidation for missing fields or short passwords and
// store.ErrConflict when the username or email is taken.
func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return types.User{}, fmt.Errorf("%w: password must be at least 6 characters long", ErrValidation)
	}

	if role == "" {
		role = types.RoleUser
	}
	if role != types.RoleUser && role != types.RoleAdmin {
		return types.User{}, fmt.Errorf("%w: unknown role", ErrValidation)
	}

	taken, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, store.ErrConflict
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: string(hashed),
	})
}

// Login verifies credentials and stamps last_login. When a role is
// supplied and differs from the stored one, the failure is
// indistinguishable from a bad password.
func (s *AuthService) Login(ctx context.Context, username, password, role string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	if role != "" && user.Role != role {
		return types.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return types.User{}, err
	}
	user.LastLogin = &now

	return user, nil
}

// GetByID loads a user record.
func (s *AuthService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetActive marks an account active or inactive. Deactivated accounts
// keep their data and drop out of the active-user count.
func (s *AuthService) SetActive(ctx context.Context, id int, active bool) (types.User, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// CountActive returns the number of active accounts.
func (s *AuthService) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}
