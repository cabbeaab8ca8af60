package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"raffled/pkg/platform/secrets"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
// Subject identifies the machine caller; Role gates which endpoints it
// may hit ("keeper" or "coordinator").
type JWTClaims struct {
	Subject string
	Role    string
}

type contextKeyCaller struct{}

// GetCaller retrieves the authenticated machine caller from the context.
func GetCaller(ctx context.Context) *JWTClaims {
	claims, ok := ctx.Value(contextKeyCaller{}).(*JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireAuth validates the bearer token and, when roles are given,
// requires the token's role to be one of them.
func RequireAuth(validator JWTValidator, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"error", err,
				)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !hasRole(claims.Role, roles) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyCaller{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMachineAuth accepts either a bearer JWT carrying one of the given
// roles or, when apiKeyHash is non-empty, the shared secret presented in
// X-API-Key. The shared-secret path exists for keepers and coordinators
// that cannot mint JWTs.
func RequireMachineAuth(validator JWTValidator, apiKeyHash string, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	bearer := RequireAuth(validator, logger, roles...)
	return func(next http.Handler) http.Handler {
		jwtNext := bearer(next)
		if apiKeyHash == "" {
			return jwtNext
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				jwtNext.ServeHTTP(w, r)
				return
			}
			if err := secrets.Verify(key, apiKeyHash); err != nil {
				logger.WarnContext(r.Context(), "api key verification failed",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}

			role := ""
			if len(roles) > 0 {
				role = roles[0]
			}
			claims := &JWTClaims{Subject: "shared-key", Role: role}
			ctx := context.WithValue(r.Context(), contextKeyCaller{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
