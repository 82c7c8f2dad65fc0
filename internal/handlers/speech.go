package handlers

import (
	"schoolgenius/internal/models"
	"schoolgenius/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SpeechHandler handles text-to-speech API requests
type SpeechHandler struct {
	speech *services.SpeechService
}

// NewSpeechHandler creates a new speech handler
func NewSpeechHandler(speech *services.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

// Resolve handles POST /api/speech
func (h *SpeechHandler) Resolve(c *fiber.Ctx) error {
	var req models.SpeechRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	result, err := h.speech.ResolveSpeech(c.Context(), req)
	if err != nil {
		return writeResolveError(c, err)
	}

	return c.JSON(result)
}
