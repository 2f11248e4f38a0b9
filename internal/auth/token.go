package auth

import (
	"errors"
	"strconv"
	"time"

	"trade-analytics-go/internal/config"
	"trade-analytics-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetTokenType = "password_reset"

// ErrInvalidToken marks a token that fails signature, expiry, or type
// checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both session and password-reset tokens. The
// registered Subject carries the user id for session tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	// TokenType distinguishes password-reset tokens from session tokens.
	TokenType string `json:"type,omitempty"`

	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret   []byte
	tokenTTL time.Duration
	resetTTL time.Duration
}

// NewTokenIssuer creates a token issuer from the auth configuration.
func NewTokenIssuer(cfg *config.Auth) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		resetTTL: time.Duration(cfg.ResetTTLMinutes) * time.Minute,
	}
}

// IssueSession creates a session token for an authenticated user.
func (t *TokenIssuer) IssueSession(user *models.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.tokenTTL)
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// jti keeps tokens unique even when issued within the same
			// second; Session.Token carries a unique index.
			ID: uuid.NewString(),
		},
	}
	return t.sign(claims, expiresAt)
}

// IssueReset creates a short-lived password-reset token for an email.
func (t *TokenIssuer) IssueReset(email string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.resetTTL)
	claims := Claims{
		Email:     email,
		TokenType: resetTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return t.sign(claims, expiresAt)
}

func (t *TokenIssuer) sign(claims Claims, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning its claims.
func (t *TokenIssuer) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

