package middleware

import (
	"net/http"
	"strings"

	"github.com/greengomarket/greengo-backend/pkg/logger"
)

// GuestTokenHeader names the device-scoped cart token sent by storefront
// clients that have not signed in.
const GuestTokenHeader = "X-Guest-Token"

// GuestContext lifts the guest token off the request so cart handlers can
// resolve an owner identity even before authentication.
func GuestContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(GuestTokenHeader))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithGuestToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithGuestToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
