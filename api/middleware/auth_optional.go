package middleware

import (
	"context"
	"net/http"

	pkgauth "github.com/greengomarket/greengo-backend/pkg/auth"
	"github.com/greengomarket/greengo-backend/pkg/auth/session"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/logger"
)

// AuthOptional seeds the context with claims when a valid bearer token is
// present and falls through silently otherwise. Cart and checkout surfaces
// serve guests and signed-in users through the same routes, so a missing or
// stale token downgrades the request to guest handling instead of failing it.
func AuthOptional(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			role := ""
			if claims.Role != nil {
				role = string(*claims.Role)
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxUserEmail, claims.Email)
			ctx = context.WithValue(ctx, ctxRole, role)
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
