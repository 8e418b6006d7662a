package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/http/dto"
	"github.com/colabhq/workspace-core/internal/services"
)

type PresenceHandler struct {
	presence *services.PresenceService
	log      *zap.Logger
}

func NewPresenceHandler(presence *services.PresenceService, log *zap.Logger) *PresenceHandler {
	return &PresenceHandler{presence: presence, log: log}
}

// Typing serves POST /presence/typing. No audit entry is written here:
// typing signals are ephemeral and exempt by policy.
func (h *PresenceHandler) Typing(c *fiber.Ctx) error {
	var req dto.TypingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.ValidationError, "invalid request body")
	}
	if req.WorkspaceID == "" {
		return apperr.New(apperr.ValidationError, "workspace_id is required")
	}

	if err := h.presence.NotifyTyping(c.Context(), actor(c), req.WorkspaceID, req.ChannelID, req.IsTyping); err != nil {
		h.log.Error("typing broadcast failed", zap.String("workspace_id", req.WorkspaceID), zap.Error(err))
		return err
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

// Members serves GET /presence/workspaces/:id/members. An unreachable
// transport is 503, never an empty list.
func (h *PresenceHandler) Members(c *fiber.Ctx) error {
	workspaceID := c.Params("id")
	if workspaceID == "" {
		return apperr.New(apperr.ValidationError, "workspace id is required")
	}

	members, err := h.presence.ChannelMembers(c.Context(), workspaceID)
	if err != nil {
		h.log.Error("membership lookup failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "presence unavailable"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MembersResponse{
		WorkspaceID: workspaceID,
		Members:     members,
	}})
}
