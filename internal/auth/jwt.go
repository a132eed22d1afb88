package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/models"
)

// TokenTTL is the fixed lifetime of a session token.
const TokenTTL = 7 * 24 * time.Hour

// Claims defines the JWT claims structure. Role is a snapshot taken at
// issuance; it is not refreshed when the account changes.
type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports the admin flag as of issuance.
func (c *Claims) IsAdmin() bool { return c.Role.IsAdmin() }

// IsOwner reports the owner flag as of issuance.
func (c *Claims) IsOwner() bool { return c.Role.IsOwner() }

// AuthFailure says why a token was rejected. All reasons map to the same
// client-visible 401; the distinction is for logs.
type AuthFailure string

const (
	FailureMissing   AuthFailure = "missing"
	FailureMalformed AuthFailure = "malformed"
	FailureExpired   AuthFailure = "expired"
	FailureInvalid   AuthFailure = "invalid"
)

// AuthError is returned by TokenIssuer.Verify and the authentication
// middleware. It matches common.ErrUnauthenticated with errors.Is.
type AuthError struct {
	Reason AuthFailure
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthenticated (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unauthenticated (%s)", e.Reason)
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{common.ErrUnauthenticated}
	}
	return []error{common.ErrUnauthenticated, e.Err}
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: t.secret, now: now}
}

// Issue creates a new token for acc.
func (t *TokenIssuer) Issue(acc models.Account) (string, error) {
	if acc.ID == "" {
		return "", errors.New("cannot issue token without account id")
	}

	issuedAt := t.now()
	claims := &Claims{
		UserID: acc.ID,
		Role:   acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token string. It checks the signature and
// expiry only and never consults the account store.
func (t *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, &AuthError{Reason: FailureMissing}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, &AuthError{Reason: classify(err), Err: err}
	}
	if !token.Valid || claims.UserID == "" || !claims.Role.IsValid() {
		return nil, &AuthError{Reason: FailureInvalid, Err: jwt.ErrTokenInvalidClaims}
	}
	return claims, nil
}

func classify(err error) AuthFailure {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return FailureMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpired
	default:
		return FailureInvalid
	}
}
