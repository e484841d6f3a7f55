package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/plug/fuel-api/internal/pkg/jwt"
	"github.com/plug/fuel-api/internal/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// Auth returns middleware that validates the bearer JWT.
// Runs before any handler reads the body, so a bad token always wins over bad input.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return authenticate(jwtService, func(w http.ResponseWriter, message string) {
		response.Unauthorized(w, message)
	})
}

type functionUnauthorized struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// FunctionAuth is Auth for the /functions/v1 routes, whose clients read
// "error" as a plain string.
func FunctionAuth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return authenticate(jwtService, func(w http.ResponseWriter, _ string) {
		response.Raw(w, http.StatusUnauthorized, functionUnauthorized{Error: "Unauthorized"})
	})
}

func authenticate(jwtService *jwt.Service, deny func(w http.ResponseWriter, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				deny(w, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				deny(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					deny(w, "Token expired")
				} else {
					deny(w, "Invalid token")
				}
				return
			}

			userID, _ := claims.UserID()
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRole extracts role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// RequireRole returns middleware that checks user role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetRole(r.Context())

			for _, role := range roles {
				if userRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin allows the service role key and admin users.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(jwt.RoleServiceRole, jwt.RoleAdmin)
}
