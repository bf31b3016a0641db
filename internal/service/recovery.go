package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

const (
	pinMin = 100000
	pinMax = 999999
)

// RecoveryRepository defines the persistence operations of the password-recovery flow.
type RecoveryRepository interface {
	// GetAccountByEmail returns models.ErrNotFound if no account matches.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// SetResetPin atomically stores pin on the matching account and returns it.
	SetResetPin(ctx context.Context, email, pin string) (*models.Account, error)
	// ConsumeResetPin clears the stored PIN if it equals pin and reports whether it did.
	ConsumeResetPin(ctx context.Context, email, pin string) (bool, error)
	// ResetPasswordWithGrant replaces the hash only while the grant left by a
	// verified PIN is present, consuming it in the same step. It reports
	// whether the hash was replaced.
	ResetPasswordWithGrant(ctx context.Context, email, passwordHash string) (bool, error)
	// UpdatePasswordHash returns models.ErrNotFound if no account matches.
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

// Notifier delivers a reset PIN to an account holder.
type Notifier interface {
	SendResetPin(ctx context.Context, email, pin string) error
}

// RecoveryRecorder counts recovery step outcomes.
type RecoveryRecorder interface {
	Recovery(step, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Recovery(string, string) {}

// RecoveryService drives the forgotten-password flow:
// RequestReset issues and delivers a PIN, VerifyPin consumes it and
// ResetPassword replaces the account secret.
//
// The per-account state lives only in the stored PIN. Issuing a new PIN
// overwrites any earlier one, so concurrent requests resolve to the last write.
type RecoveryService struct {
	repo     RecoveryRepository
	hasher   PasswordHasher
	notifier Notifier
	log      *zap.Logger
	metrics  RecoveryRecorder
	strict   bool
	newPin   func() (string, error)
}

// RecoveryOption customizes a RecoveryService.
type RecoveryOption func(*RecoveryService)

// WithStrictReset makes ResetPassword require a prior successful VerifyPin.
func WithStrictReset(strict bool) RecoveryOption {
	return func(s *RecoveryService) { s.strict = strict }
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r RecoveryRecorder) RecoveryOption {
	return func(s *RecoveryService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithPinGenerator replaces the PIN source.
func WithPinGenerator(gen func() (string, error)) RecoveryOption {
	return func(s *RecoveryService) { s.newPin = gen }
}

// NewRecoveryService constructs a RecoveryService.
func NewRecoveryService(repo RecoveryRepository, hasher PasswordHasher, notifier Notifier, log *zap.Logger, opts ...RecoveryOption) *RecoveryService {
	s := &RecoveryService{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		log:      log,
		metrics:  nopRecorder{},
		newPin:   GeneratePin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratePin returns a uniformly random 6-digit PIN in [100000, 999999].
func GeneratePin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinMax-pinMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+pinMin), nil
}

// RequestReset issues a fresh PIN for email and hands it to the notifier.
// It returns models.ErrNotFound for unknown emails, without delivering anything,
// and ErrDeliveryFailed if the notifier fails. In the latter case the PIN stays
// stored and can still be verified.
func (s *RecoveryService) RequestReset(ctx context.Context, email string) error {
	pin, err := s.newPin()
	if err != nil {
		s.metrics.Recovery("request", "error")
		return fmt.Errorf("generate pin: %w", err)
	}

	acc, err := s.repo.SetResetPin(ctx, email, pin)
	if errors.Is(err, models.ErrNotFound) {
		s.metrics.Recovery("request", "not_found")
		return models.ErrNotFound
	}
	if err != nil {
		s.metrics.Recovery("request", "error")
		return fmt.Errorf("store pin: %w", err)
	}

	if err := s.notifier.SendResetPin(ctx, acc.Email, pin); err != nil {
		s.log.Error("reset pin delivery failed", zap.String("account_id", acc.ID), zap.Error(err))
		s.metrics.Recovery("request", "delivery_failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.log.Info("reset pin sent", zap.String("account_id", acc.ID))
	s.metrics.Recovery("request", "sent")
	return nil
}

// VerifyPin consumes the stored PIN of email if it equals pin.
// A consumed PIN cannot be presented again. A mismatch leaves the stored PIN
// in place and returns ErrInvalidOTP; unknown emails yield ErrRecoveryFailed.
func (s *RecoveryService) VerifyPin(ctx context.Context, email, pin string) error {
	acc, err := s.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.metrics.Recovery("verify", "not_found")
		return ErrRecoveryFailed
	}
	if err != nil {
		s.metrics.Recovery("verify", "error")
		return fmt.Errorf("lookup account: %w", err)
	}

	if pin == "" || acc.ResetPin == "" || subtle.ConstantTimeCompare([]byte(acc.ResetPin), []byte(pin)) != 1 {
		s.metrics.Recovery("verify", "invalid")
		return ErrInvalidOTP
	}

	// The stored PIN may have been replaced or consumed since it was read.
	ok, err := s.repo.ConsumeResetPin(ctx, email, pin)
	if err != nil {
		s.metrics.Recovery("verify", "error")
		return fmt.Errorf("consume pin: %w", err)
	}
	if !ok {
		s.metrics.Recovery("verify", "invalid")
		return ErrInvalidOTP
	}

	s.log.Info("reset pin verified", zap.String("account_id", acc.ID))
	s.metrics.Recovery("verify", "success")
	return nil
}

// ResetPassword replaces the secret of the account matching email.
//
// Unless strict mode is enabled this step does not check that VerifyPin
// succeeded first. In strict mode the new hash is stored only together with
// consuming the grant left by VerifyPin, and ErrResetNotVerified is returned
// when there is none. A failed update leaves the grant in place.
func (s *RecoveryService) ResetPassword(ctx context.Context, email, password string) error {
	if _, err := s.repo.GetAccountByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.Recovery("reset", "not_found")
			return models.ErrNotFound
		}
		s.metrics.Recovery("reset", "error")
		return fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.Recovery("reset", "error")
		return fmt.Errorf("hash password: %w", err)
	}

	if s.strict {
		ok, err := s.repo.ResetPasswordWithGrant(ctx, email, hash)
		if err != nil {
			s.metrics.Recovery("reset", "error")
			return fmt.Errorf("update password: %w", err)
		}
		if !ok {
			s.metrics.Recovery("reset", "unverified")
			return ErrResetNotVerified
		}
	} else if err := s.repo.UpdatePasswordHash(ctx, email, hash); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.Recovery("reset", "not_found")
			return models.ErrNotFound
		}
		s.metrics.Recovery("reset", "error")
		return fmt.Errorf("update password: %w", err)
	}

	s.metrics.Recovery("reset", "success")
	return nil
}
