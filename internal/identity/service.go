package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/paisapay/paisapay/internal/ledger"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials covers bad username/password combinations.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword rejects passwords below the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrMissingUsername rejects registration without a handle.
	ErrMissingUsername = errors.New("username is required")
)

// Service manages identity lifecycle. Registration provisions the user's
// ledger account alongside the credential record.
type Service struct {
	repo     Repository
	accounts ledger.Store
}

// NewService creates a new identity service.
func NewService(repo Repository, accounts ledger.Store) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// Register creates a new user with a hashed password and a zero-balance account.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	if creds.Username == "" {
		return User{}, ErrMissingUsername
	}
	if len(creds.Password) < minPasswordLength {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	if err := s.accounts.CreateAccount(ctx, user.ID); err != nil && !errors.Is(err, ledger.ErrAccountExists) {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies a username/password pair and returns the user.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}
