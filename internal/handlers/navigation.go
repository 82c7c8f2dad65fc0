package handlers

import (
	"schoolgenius/internal/models"
	"schoolgenius/internal/services"

	"github.com/gofiber/fiber/v2"
)

// NavigationHandler serves pending per-session navigation targets
type NavigationHandler struct {
	sessions *services.SessionState
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(sessions *services.SessionState) *NavigationHandler {
	return &NavigationHandler{sessions: sessions}
}

// Pending handles GET /api/navigation/pending. Popping is destructive: each
// target is delivered at most once.
func (h *NavigationHandler) Pending(c *fiber.Ctx) error {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "sessionId query parameter is required",
		})
	}

	target, ok := h.sessions.PopPending(sessionID)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(fiber.Map{"target": target})
}
