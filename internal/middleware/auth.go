package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/auth"
	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/rbac"
)

const (
	CtxUserID   = "user_id"
	CtxUserName = "user_name"
	CtxUserRole = "user_role"
)

// Authenticated verifies the bearer credential and stores the verified
// identity in the request context. The token is read from the
// Authorization header, falling back to the configured cookie. Every
// route that touches audit storage, the broadcaster, or domain stores
// must sit behind this middleware.
func Authenticated(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := extractToken(c, cfg.AuthCookieName)
		if tokenStr == "" {
			return apperr.New(apperr.Unauthenticated, "missing credentials")
		}

		claims, err := auth.ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("token parse error", zap.Error(err))
			return apperr.New(apperr.Unauthenticated, "invalid or expired token")
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxUserName, claims.Name)
		c.Locals(CtxUserRole, claims.Role)

		return c.Next()
	}
}

// RequirePermission denies the request unless the authenticated role
// carries the permission. Must run after Authenticated.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := ActorRole(c)
		if !rbac.HasPermission(role, permission) {
			return apperr.New(apperr.Forbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// RequireAnyPermission passes when the role has at least one of the
// listed permissions.
func RequireAnyPermission(permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := ActorRole(c)
		for _, p := range permissions {
			if rbac.HasPermission(role, p) {
				return c.Next()
			}
		}
		return apperr.New(apperr.Forbidden, "insufficient permissions")
	}
}

// extractToken prefers the Bearer header; anything else (absent or a
// different scheme) falls through to the cookie.
func extractToken(c *fiber.Ctx, cookieName string) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if tokenStr := strings.TrimPrefix(authHeader, "Bearer "); tokenStr != authHeader {
			return tokenStr
		}
	}
	return c.Cookies(cookieName)
}

func ActorID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

func ActorName(c *fiber.Ctx) string {
	name, _ := c.Locals(CtxUserName).(string)
	return name
}

func ActorRole(c *fiber.Ctx) string {
	role, _ := c.Locals(CtxUserRole).(string)
	return role
}
