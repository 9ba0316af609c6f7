// Package auth issues and validates the signed identity tokens and hashes
// user credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finassist/internal/config"
)

var (
	// ErrTokenExpired is returned when a token's exp lies in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed payloads, foreign
	// algorithms and a missing user_id claim.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the signed payload: {user_id, email, exp}.
// Access and refresh tokens share this shape and differ only in lifetime.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies identity tokens with a shared HMAC secret.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a TokenService from the auth configuration.
func NewTokenService(c config.AuthConfig) (*TokenService, error) {
	if c.Secret == "" {
		return nil, errors.New("signing secret is required")
	}
	method, ok := jwt.GetSigningMethod(c.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", c.Algorithm)
	}
	return &TokenService{
		secret:     []byte(c.Secret),
		method:     method,
		accessTTL:  c.AccessTTL,
		refreshTTL: c.RefreshTTL,
		now:        time.Now,
	}, nil
}

// IssueAccessToken signs a short-lived token for the given identity.
func (s *TokenService) IssueAccessToken(userID, email string) (string, error) {
	return s.issue(userID, email, s.accessTTL)
}

// IssueRefreshToken signs a long-lived token for the given identity.
func (s *TokenService) IssueRefreshToken(userID, email string) (string, error) {
	return s.issue(userID, email, s.refreshTTL)
}

func (s *TokenService) issue(userID, email string, ttl time.Duration) (string, error) {
	tok := jwt.NewWithClaims(s.method, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of tokenString and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrTokenInvalid)
	}
	return claims, nil
}

// Refresh mints a new access token from a valid refresh token.
// There is no revocation list: a refresh token stays usable until it expires.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	claims, err := s.Validate(refreshToken)
	if err != nil {
		return "", err
	}
	return s.IssueAccessToken(claims.UserID, claims.Email)
}
