package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// OnDenied is called when the caller role is not allowed (default: return 403)
	OnDenied func(c *gin.Context, allowed []identity.Role)
	// Logger for denied requests
	Logger *zap.Logger
}

// RequireRole creates middleware that lets through callers with one of the
// given roles. It must run after JWTAuthMiddleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity.FromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if lo.Contains(roles, id.Role) {
			c.Next()
			return
		}
		handleRoleDenied(c, cfg, id, roles)
	}
}

func handleRoleDenied(c *gin.Context, cfg RoleConfig, id identity.Identity, allowed []identity.Role) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, allowed)
		c.Abort()
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Role denied",
			zap.String("user_id", id.UserID.String()),
			zap.String("role", string(id.Role)),
			zap.Strings("allowed_roles", lo.Map(allowed, func(r identity.Role, _ int) string { return string(r) })),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "This action is not available for your role", c.GetString(RequestIDKey)))
}

// HasRole is a helper to check the caller role in handlers
func HasRole(c *gin.Context, roles ...identity.Role) bool {
	id, ok := identity.FromContext(c.Request.Context())
	return ok && lo.Contains(roles, id.Role)
}
