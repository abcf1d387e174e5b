package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
)

type ctxKey struct{}

var principalKey ctxKey

// SessionVerifier validates a bearer credential.
type SessionVerifier interface {
	Verify(raw string) (models.Principal, error)
}

// RequireAuth is middleware that validates the bearer session credential and
// injects the principal into the request context.
func RequireAuth(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearer(r)
			if err != nil {
				httpx.HandleErr(w, r, serr.Unauthenticated(err))
				return
			}

			p, err := v.Verify(raw)
			if err != nil {
				httpx.HandleErr(w, r, serr.Unauthenticated(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole admits only principals whose role is exactly role.
// It must run after RequireAuth.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.HandleErr(w, r, serr.Unauthenticated(errors.New("no principal in context")))
				return
			}
			if p.Role != role {
				httpx.HandleErr(w, r, serr.Forbidden(nil, "requires %s role", role).With("role", p.Role.String()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Split(h, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("authorization header is malformed")
	}

	return parts[1], nil
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}
