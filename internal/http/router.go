package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/http/handlers"
	"github.com/colabhq/workspace-core/internal/middleware"
	"github.com/colabhq/workspace-core/internal/rbac"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	userHandler *handlers.UserHandler,
	auditHandler *handlers.AuditHandler,
	presenceHandler *handlers.PresenceHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimit(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Every route below passes the access guard; nothing touches the
	// audit store or the broadcaster without it.
	protected := api.Group("", middleware.Authenticated(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)

	// Audit (privileged read)
	protected.Get("/audit",
		middleware.RequireAnyPermission(rbac.PermAuditRead, rbac.PermAdminAccess),
		auditHandler.List)

	// Presence
	protected.Post("/presence/typing",
		middleware.RequirePermission(rbac.PermPresenceBroadcast),
		presenceHandler.Typing)
	protected.Get("/presence/workspaces/:id/members",
		middleware.RequirePermission(rbac.PermWorkspaceView),
		presenceHandler.Members)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
