package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating JWT access tokens
type TokenValidator interface {
	// ValidateToken validates a JWT access token and returns claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// UserLoader loads users for authenticated requests
type UserLoader interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	users     UserLoader
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, users UserLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		users:     users,
		logger:    logger,
	}
}

// RequireAuth is a middleware that requires a valid JWT access token.
// The token subject must resolve to an active user, which is stored in
// the request context along with the claims.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		user, err := m.users.GetByUsername(ctx, claims.Username)
		if err != nil {
			m.logger.Warn("token subject not found",
				zap.String("request_id", requestID),
				zap.String("username", claims.Username),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		if !user.CanAuthenticate() {
			m.logger.Warn("disabled user rejected",
				zap.String("request_id", requestID),
				zap.String("username", user.Username))
			_ = utils.WriteUnauthorized(w, "User account is disabled")
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithUser(ctx, user)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("username", user.Username))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is a middleware that requires an admin or superuser.
// This should be called after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		user := GetUserFromContext(ctx)
		if user == nil {
			m.logger.Error("user not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		if !user.IsAdmin && !user.IsSuperuser {
			m.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("username", user.Username))
			_ = utils.WriteForbidden(w, "Insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireFresh is a middleware that requires a fresh token, i.e. one
// issued directly from a password login rather than a refresh.
// This should be called after RequireAuth.
func (m *AuthMiddleware) RequireFresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		if !claims.Fresh {
			m.logger.Warn("fresh token required",
				zap.String("request_id", requestID),
				zap.String("username", claims.Username))
			_ = utils.WriteForbidden(w, "A fresh token is required for this operation")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Check if it starts with "Bearer "
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
