// Package service provides account, password-recovery and journal-entry
// business logic, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

// AccountRepository defines the persistence operations
// required by the account service.
type AccountRepository interface {
	// CreateAccount stores a new account and returns its ID.
	// Returns models.ErrDuplicate if the email is taken.
	CreateAccount(ctx context.Context, email, passwordHash string) (string, error)
	// GetAccountByEmail returns models.ErrNotFound if no account matches.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// GetAccountByID returns models.ErrNotFound if no account matches.
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// PasswordHasher hashes and verifies account secrets.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer issues session tokens bound to an account ID.
type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

// AccountService implements registration, login and profile lookup.
type AccountService struct {
	repo   AccountRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger

	// dummyHash is compared against on unknown emails so both login
	// failures cost one hash verification.
	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo AccountRepository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// Register creates an account for email and returns its ID.
// It returns models.ErrDuplicate if the email is already registered.
func (s *AccountService) Register(ctx context.Context, email, password string) (string, error) {
	_, err := s.repo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return "", models.ErrDuplicate
	case !errors.Is(err, models.ErrNotFound):
		return "", fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateAccount(ctx, email, hash)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return "", err
		}
		return "", fmt.Errorf("create account: %w", err)
	}

	s.log.Info("account registered", zap.String("account_id", id))
	return id, nil
}

// Login verifies the credentials and returns a session token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := s.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.hasher.Verify(password, s.unknownAccountHash())
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}

	if !s.hasher.Verify(password, acc.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *AccountService) unknownAccountHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("unknown-account")
		if err != nil {
			s.log.Warn("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Profile returns the public view of the account with the given ID.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Profile, error) {
	acc, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{ID: acc.ID, Email: acc.Email}, nil
}
