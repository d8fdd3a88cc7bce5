// Package auth carries verified bearer claims through the request context.
package auth

import (
	"context"
	"net/http"

	"github.com/virtualclassroom/backend/internal/infrastructure/json"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/presentation/utils"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ClaimsFromContext returns the claims installed by Middleware, or nil when
// the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *security.Claims {
	claims, _ := ctx.Value(claimsKey).(*security.Claims)
	return claims
}

// Middleware rejects requests without a valid bearer token and stores the
// token's claims in the request context for downstream handlers.
func Middleware(tokenManager *security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := utils.ExtractBearerToken(r)
			if token == "" {
				json.WriteUnauthorizedError(w, "Missing or invalid authentication")
				return
			}

			claims, err := tokenManager.Validate(token)
			if err != nil {
				json.WriteUnauthorizedError(w, "Missing or invalid authentication")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
