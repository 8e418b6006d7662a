package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/http/dto"
	"github.com/colabhq/workspace-core/internal/middleware"
	"github.com/colabhq/workspace-core/internal/models"
	"github.com/colabhq/workspace-core/internal/repositories"
	"github.com/colabhq/workspace-core/internal/services"
)

type AuditHandler struct {
	audit *services.AuditService
	log   *zap.Logger
}

func NewAuditHandler(audit *services.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// List serves GET /audit. Filters: user_id, action, resource_type,
// limit. The route is guarded by audit.read upstream; the read is
// itself recorded.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := repositories.AuditFilter{
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
	}

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.New(apperr.ValidationError, "invalid user_id")
		}
		filter.UserID = &id
	}
	if filter.ResourceType != "" && !models.IsValidResourceType(filter.ResourceType) {
		return apperr.New(apperr.ValidationError, "unknown resource_type")
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.New(apperr.ValidationError, "invalid limit")
		}
		filter.Limit = n
	}

	entries, err := h.audit.Query(c.Context(), filter)
	if err != nil {
		h.log.Error("audit query failed", zap.Error(err))
		return err
	}

	h.audit.Record(actor(c), services.RecordParams{
		Action:       "audit.query",
		ResourceType: models.ResourceWorkspace,
		Metadata:     map[string]any{"results": len(entries)},
	}, requestInfo(c))

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{ID: middleware.ActorID(c), Name: middleware.ActorName(c)}
}

func requestInfo(c *fiber.Ctx) *services.RequestInfo {
	return &services.RequestInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}
