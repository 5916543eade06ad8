package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatgpt/zatgpt-backend/api/responses"
	"github.com/zatgpt/zatgpt-backend/internal/authz"
	pkgAuth "github.com/zatgpt/zatgpt-backend/pkg/auth"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

// BearerResolver turns a bearer credential into the calling user.
type BearerResolver interface {
	Resolve(ctx context.Context, bearer string) (authz.Caller, *pkgAuth.AccessTokenClaims, error)
}

// Auth validates a bearer token and seeds the request context with the caller.
func Auth(resolver BearerResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			caller, claims, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := authz.WithCaller(r.Context(), caller)
			ctx = WithAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    caller.Identity.String(),
					"actor_role": caller.Rank().String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The scheme
// prefix is optional.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	token := raw
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
