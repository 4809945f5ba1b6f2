package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/wecare/escalas-backend/internal/domain/auth"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
)

// verifyAccess checks the token jwtauth.Verifier left in the request context.
// SSE tokens verify with the same key, so the type claim must be checked too.
func verifyAccess(r *http.Request, jwtService jwt.Service) error {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != jwt.TokenTypeAccess {
		return auth.ErrInvalidToken
	}
	if raw := jwtauth.TokenFromHeader(r); raw != "" && jwtService.IsTokenRevoked(raw) {
		return auth.ErrTokenRevoked
	}
	return nil
}

// AuthRequired rejects requests without a valid, unrevoked access token.
// It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifyAccess(r, jwtService); err != nil {
				response.HandleError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
