package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or its signature does not verify.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the account identifier bound to a session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
}

// TokenService issues and verifies HS256 session tokens.
// Tokens carry no expiry and are never checked against the account store.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte) *TokenService {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{secret: key, now: time.Now}
}

// Issue returns a signed token asserting accountID.
func (s *TokenService) Issue(accountID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  accountID,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		AccountID: accountID,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the account identifier it asserts.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" {
		return "", ErrInvalidToken
	}
	return claims.AccountID, nil
}
