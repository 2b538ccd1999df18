package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"filenet/internal/model"
	"filenet/internal/service"
)

type permissionRequest struct {
	UserID string `json:"user_id"`
	Level  string `json:"level"`
}

// GrantPermission handles POST /files/:id/permissions.
//
// @Summary Grant a user a permission level on a document
// @Param id path string true "document id"
// @Param body body permissionRequest true "subject user and level"
// @Success 204
// @Router /files/{id}/permissions [post]
func GrantPermission(permSvc service.PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id, req, err := parsePermissionRequest(c)
		if req == nil {
			return err
		}
		if err := permSvc.Grant(c.UserContext(), id, principal.ID, req.UserID, model.Level(req.Level)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RevokePermission handles DELETE /files/:id/permissions. Revoking READ
// also removes WRITE and DELETE in the same transaction.
//
// @Summary Revoke a user's permission level on a document
// @Param id path string true "document id"
// @Param body body permissionRequest true "subject user and level"
// @Success 204
// @Router /files/{id}/permissions [delete]
func RevokePermission(permSvc service.PermissionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := principalFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		}
		id, req, err := parsePermissionRequest(c)
		if req == nil {
			return err
		}
		if err := permSvc.Revoke(c.UserContext(), id, principal.ID, req.UserID, model.Level(req.Level)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// parsePermissionRequest validates the path id and body; on failure the
// error response has already been written and the returned request is nil.
func parsePermissionRequest(c *fiber.Ctx) (string, *permissionRequest, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", nil, writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var req permissionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", nil, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with user_id and level")
	}
	if req.UserID == "" {
		return "", nil, writeError(c, fiber.StatusBadRequest, "USER_ID_REQUIRED", "user_id is required")
	}
	if !model.Level(req.Level).Valid() {
		return "", nil, writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", "level must be read, write, or delete")
	}
	return id, &req, nil
}
