package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/cielo-gateway-go/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const clientIDKey contextKey = "clientID"

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*service.Claims, error)
}

// JWTAuthMiddleware validates Bearer tokens and injects the client id into
// the context.
func JWTAuthMiddleware(auth TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := auth.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIDFromContext extracts the authenticated client id from context.
func ClientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}
