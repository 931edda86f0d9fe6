package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gunheehan/FitnessPT-api/internal/pkg/httpx"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/router"
)

type ctxKey struct{}

var principalKey ctxKey

// Principal is the authenticated caller as described by a verified access token.
type Principal struct {
	UserID    int64
	Email     string
	Role      string
	Provider  string
	TokenID   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenParser verifies a raw bearer token and returns its principal.
type TokenParser func(raw string) (Principal, error)

func Auth(parse TokenParser) router.Middleware {
	return func(next http.Handler) http.Handler {
		return authMiddleware(next, parse)
	}
}

func authMiddleware(next http.Handler, parse TokenParser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := BearerToken(r)
		if rawToken == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		p, err := parse(rawToken)
		if err != nil {
			authError("failed to verify access token", w, r, err)
			return
		}
		if p.UserID <= 0 {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole rejects callers whose role is not one of roles. It must run after Auth.
func RequireRole(roles ...string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if !slices.ContainsFunc(roles, func(role string) bool { return strings.EqualFold(role, p.Role) }) {
				httpx.WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken returns the token from the Authorization header. The "Bearer " prefix is optional.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}

	return h
}

func authError(msg string, w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn(msg,
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)
	httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
