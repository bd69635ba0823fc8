// Package auth provides credential policy, password hashing, session tokens,
// and the request guard for the classroom API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/users registers a teacher or student (policy → bcrypt → insert)
//  2. POST /api/auth/login checks the password and returns a signed JWT
//  3. Every protected request sends "Authorization: Bearer <jwt>"; the Guard
//     verifies it and puts an Identity into the request context
//  4. POST /api/auth/refresh trades a still-valid token for a fresh one
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"user_id":7,"sub":"alice","iss":"classroom","iat":...,"exp":...,"jti":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Validity is recomputed from the token, the secret, and the clock on every
// request. There is no server-side session and no revocation list: rotating
// the secret invalidates every outstanding token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const tokenIssuer = "classroom"

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

// Token verification failures. The Guard collapses all of them into one
// outward 401; they stay distinct here for logs, metrics, and tests.
var (
	ErrTokenMalformed        = errors.New("auth: token malformed")
	ErrTokenInvalidSignature = errors.New("auth: token signature invalid")
	ErrTokenExpired          = errors.New("auth: token expired")
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens and the token
// lifetime. Both are fixed at construction and read-only afterwards, so one
// TokenService is shared by all requests.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A zero lifetime issues tokens without an expiry claim.
//
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if lifetime < 0 {
		return nil, errors.New("auth: token lifetime must not be negative")
	}
	return &TokenService{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime returns the configured token lifetime (0 = no expiry).
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// claims is the JWT payload. "sub" carries the username and "user_id" the
// directory ID. Role is deliberately absent: the Guard reads it from the
// directory when a route needs it.
type claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    int64
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token never expires
}

// Issue creates and signs a new token for the given user.
func (s *TokenService) Issue(userID int64, username string) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("auth: cannot issue token for user id %d", userID)
	}
	if username == "" {
		return "", errors.New("auth: cannot issue token without a username")
	}

	now := s.now()
	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			Issuer:   tokenIssuer,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       xid.New().String(),
		},
	}
	if s.lifetime > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.lifetime))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Algorithm is HS256 (rejects "none" and algorithm confusion)
//   - Signature is valid for this service's secret
//   - Issuer is "classroom"
//   - Token is not expired, when it carries an expiry
//
// Errors wrap exactly one of ErrTokenMalformed, ErrTokenInvalidSignature,
// ErrTokenExpired.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if c.Subject == "" || c.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing identity claims", ErrTokenMalformed)
	}

	out := &Claims{
		UserID:   c.UserID,
		Username: c.Subject,
		TokenID:  c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Refresh exchanges a currently valid token for a newly issued one carrying
// the same identity. No password is involved; the old token stays valid until
// its own expiry.
func (s *TokenService) Refresh(tokenStr string) (string, error) {
	c, err := s.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	return s.Issue(c.UserID, c.Username)
}
