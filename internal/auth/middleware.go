package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/user"
	"github.com/pendakian/trip-service/internal/transport"
)

type Middleware struct {
	*transport.BaseHandler
	tokens *TokenManager
	logger *slog.Logger
}

func NewMiddleware(baseHandler *transport.BaseHandler, tokens *TokenManager, logger *slog.Logger) *Middleware {
	return &Middleware{
		BaseHandler: baseHandler,
		tokens:      tokens,
		logger:      logger,
	}
}

// Authenticate validates the bearer token and injects the user into context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.HandleError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
			return
		}

		u, err := m.tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			m.logger.Warn("token validation failed", "error", err, "path", r.URL.Path)
			m.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
	})
}

// RequireGuide rejects authenticated users without a guide profile.
func (m *Middleware) RequireGuide(next http.Handler) http.Handler {
	return m.requireRole(user.RoleGuide, next)
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.requireRole(user.RoleAdmin, next)
}

func (m *Middleware) requireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || u == nil {
			m.HandleError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeInvalidToken))
			return
		}
		if u.Role != role {
			m.logger.Warn("role check failed", "required", role, "actual", u.Role, "user_id", u.ID)
			m.HandleError(w, internal.NewForbiddenError("insufficient privileges", internal.ErrCodeInvalidCredentials))
			return
		}
		next.ServeHTTP(w, r)
	})
}
