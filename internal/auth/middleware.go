package auth

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/neyraq/portal/internal/policy"
)

// RequireSession authenticates every request through the resolver and puts
// the principal in the request context. Unauthenticated requests get a 401
// without reaching the handler.
func RequireSession(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			ctx := policy.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
