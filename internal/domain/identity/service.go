package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/salon/salon/internal/platform/auth"
)

// ErrInvalidCredentials is returned for both unknown emails and wrong
// passwords so callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	users    Repository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(users Repository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL}
}

// Login verifies the credentials and returns a signed token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := auth.Issue(s.secret, u.ID, u.Email, u.Role, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// CreateUser hashes the password and stores a new user. Used by the
// seed command; there is no self-service registration endpoint.
func (s *Service) CreateUser(ctx context.Context, name, email, password, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureUser creates the user only when the email is not taken yet.
// Returns the existing user otherwise.
func (s *Service) EnsureUser(ctx context.Context, name, email, password, role string) (*User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	u, err := s.CreateUser(ctx, name, email, password, role)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}
