package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/db"
	"github.com/colabhq/workspace-core/internal/events"
	apphttp "github.com/colabhq/workspace-core/internal/http"
	"github.com/colabhq/workspace-core/internal/http/handlers"
	"github.com/colabhq/workspace-core/internal/repositories"
	"github.com/colabhq/workspace-core/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared handles: lazy process-wide singletons, created here on
	// first (and only) access.
	pool, err := db.Pool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.Redis(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	broadcaster := events.NewRedisBroadcaster(rdb, log)

	// Services
	auditService := services.NewAuditService(auditRepo, cfg, log)
	presenceService := services.NewPresenceService(broadcaster, log)

	// Handlers
	userHandler := handlers.NewUserHandler(userRepo, log)
	auditHandler := handlers.NewAuditHandler(auditService, log)
	presenceHandler := handlers.NewPresenceHandler(presenceService, log)
	wsHub := handlers.NewWSHub(cfg, broadcaster, log)

	wsHub.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(log),
	})

	apphttp.SetupRouter(app, cfg, log, rdb, userHandler, auditHandler, presenceHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}

	// Listen has returned; let in-flight audit writes finish before
	// the process exits.
	auditService.Drain()
	log.Info("shutdown complete")
}
