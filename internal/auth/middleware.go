package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

// UserClaimsKey is the context key for the verified token claims.
const UserClaimsKey = contextKey("userClaims")

// Identity is what authentication attaches to a request: who the caller
// claims to be, backed only by the token signature.
type Identity struct {
	AccountID string
	Claims    *Claims
}

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	if !ok || claims == nil {
		return Identity{}, false
	}
	return Identity{AccountID: claims.UserID, Claims: claims}, true
}

// WithIdentity returns ctx carrying claims.
func WithIdentity(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// AccountLookup reads the current account record.
type AccountLookup interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
}

// ErrorWriter renders a taxonomy error as an HTTP response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate creates a middleware that asserts identity from the bearer
// token. The token cookie is only read on WebSocket upgrades. Role claims
// in the token are not trusted for authorization.
func Authenticate(verifier TokenVerifier, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok && websocket.IsWebSocketUpgrade(r) {
				// Browsers cannot set headers on WebSocket upgrades.
				if cookie, err := r.Cookie("token"); err == nil {
					tokenStr = cookie.Value
				}
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				var authErr *AuthError
				reason := FailureInvalid
				if errors.As(err, &authErr) {
					reason = authErr.Reason
				}
				log.Debug().Str("reason", string(reason)).Str("path", r.URL.Path).Msg("Rejected auth token")
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims)))
		})
	}
}

// RequireRole creates a middleware that re-reads the caller's account and
// requires its current role to be at least min. It must run after
// Authenticate.
func RequireRole(accounts AccountLookup, min models.Role, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeErr(w, r, &AuthError{Reason: FailureMissing})
				return
			}

			acc, err := accounts.FindByID(r.Context(), id.AccountID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					writeErr(w, r, &AuthError{Reason: FailureInvalid, Err: err})
					return
				}
				writeErr(w, r, fmt.Errorf("%w: %v", common.ErrInternal, err))
				return
			}

			if !acc.Role.AtLeast(min) {
				log.Warn().Str("user_id", acc.ID).Str("role", string(acc.Role)).Str("required", string(min)).Msg("Insufficient role")
				writeErr(w, r, common.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
