package service

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOTP is returned when a supplied reset PIN does not match the stored one.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrDeliveryFailed is returned when a reset PIN was stored but could not be delivered.
	ErrDeliveryFailed = errors.New("pin delivery failed")
	// ErrRecoveryFailed is the deliberately vague failure of PIN verification for unknown accounts.
	ErrRecoveryFailed = errors.New("recovery failed")
	// ErrResetNotVerified is returned in strict mode when no verified PIN precedes a password reset.
	ErrResetNotVerified = errors.New("reset not verified")
)
