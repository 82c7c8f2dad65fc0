package handlers

import (
	"context"
	"log"

	"schoolgenius/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StatsSource provides aggregate cache statistics
type StatsSource interface {
	Stats(ctx context.Context) (*models.CacheStats, error)
}

// StatsHandler serves cache statistics
type StatsHandler struct {
	source StatsSource
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(source StatsSource) *StatsHandler {
	return &StatsHandler{source: source}
}

// CacheStats handles GET /api/cache/stats
func (h *StatsHandler) CacheStats(c *fiber.Ctx) error {
	stats, err := h.source.Stats(c.Context())
	if err != nil {
		log.Printf("❌ [STATS] Failed to aggregate cache stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Failed to retrieve cache statistics",
		})
	}
	return c.JSON(stats)
}
