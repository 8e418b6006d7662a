package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/http/dto"
	"github.com/colabhq/workspace-core/internal/middleware"
	"github.com/colabhq/workspace-core/internal/repositories"
)

type UserHandler struct {
	userRepo *repositories.UserRepo
	log      *zap.Logger
}

func NewUserHandler(userRepo *repositories.UserRepo, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, log: log}
}

// GetMe serves GET /me with the sanitized profile of the authenticated
// principal. The response never carries credential material. A missing
// row is provisioned lazily from the verified claims, so the local
// profile trails the identity provider rather than gating on it.
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID := middleware.ActorID(c)
	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		user, err = h.userRepo.UpsertFromClaims(c.Context(), userID, middleware.ActorName(c), middleware.ActorRole(c))
		if err != nil {
			h.log.Error("profile provisioning failed", zap.Error(err))
			return apperr.New(apperr.NotFound, "user not found")
		}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

func (h *UserHandler) Ping(c *fiber.Ctx) error {
	userID := middleware.ActorID(c)
	if err := h.userRepo.UpdateLastActive(c.Context(), userID); err != nil {
		h.log.Error("failed to update last_active", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
