package handlers

import (
	"errors"
	"log"

	"schoolgenius/internal/models"
	"schoolgenius/internal/providers"
	"schoolgenius/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AnswerHandler handles answer resolution API requests
type AnswerHandler struct {
	answers  *services.AnswerService
	sessions *services.SessionState
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(answers *services.AnswerService, sessions *services.SessionState) *AnswerHandler {
	return &AnswerHandler{answers: answers, sessions: sessions}
}

// Resolve handles POST /api/answers
func (h *AnswerHandler) Resolve(c *fiber.Ctx) error {
	var req models.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	result, err := h.answers.ResolveAnswer(c.Context(), req)
	if err != nil {
		return writeResolveError(c, err)
	}

	// Navigation intents ride along with answer requests but are session
	// state, never cache payload
	if req.SessionID != "" && req.NavigationTarget != "" {
		h.sessions.SetPending(req.SessionID, req.NavigationTarget)
	}

	return c.JSON(result)
}

// writeResolveError maps orchestrator errors onto HTTP statuses. Shared by
// the answer and speech handlers.
func writeResolveError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrEmptyRequest) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Request text is required",
		})
	}

	var exhausted *providers.ExhaustedError
	if errors.As(err, &exhausted) {
		details := make([]string, len(exhausted.Failures))
		for i, f := range exhausted.Failures {
			details[i] = f.Provider + ": " + f.Reason
		}
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "All generation providers are currently unavailable",
			Details: details,
		})
	}

	log.Printf("❌ [API] Unexpected resolve error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: "Internal server error",
	})
}
