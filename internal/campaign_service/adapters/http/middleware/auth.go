package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	AuthenticatedPrincipalContextKey = ContextKey("authenticatedPrincipal")
)

const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// Principal is the caller identified by a verified access token.
type Principal struct {
	ID      string
	Role    string
	IsAdmin bool
}

// HasRole reports whether the principal may act as role. Admins act as any role.
func (p Principal) HasRole(role string) bool {
	return p.IsAdmin || p.Role == role
}

var errTokenInvalid = errors.New("invalid access token")

// ParseAccessToken verifies an HS256 token signed with secret and extracts
// the principal from its sub, rol and adm claims.
func ParseAccessToken(tokenString string, secret []byte) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, errTokenInvalid
	}
	role, _ := claims["rol"].(string)
	isAdmin, _ := claims["adm"].(bool)
	return Principal{ID: sub, Role: role, IsAdmin: isAdmin || role == RoleAdmin}, nil
}

// AuthMiddleware rejects requests without a valid Bearer access token and
// stores the Principal in the request context.
func AuthMiddleware(secret []byte, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			principal, err := ParseAccessToken(parts[1], secret)
			if err != nil {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedPrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only if the authenticated principal
// holds role. It must run after AuthMiddleware.
func RequireRole(role string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "Principal not found in context for role check")
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !principal.HasRole(role) {
				logger.WarnContext(r.Context(), "Principal lacks required role", "principal_id", principal.ID, "role", principal.Role, "required_role", role)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext returns the principal stored by AuthMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(AuthenticatedPrincipalContextKey).(Principal)
	return p, ok
}
