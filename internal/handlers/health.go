package handlers

import (
	"context"
	"time"

	"schoolgenius/internal/database"
	"schoolgenius/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports service health for load balancers and monitoring
type HealthHandler struct {
	db             *database.DB
	redis          *services.RedisService // nil when not configured
	textProviders  int
	audioProviders int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redis *services.RedisService, textProviders, audioProviders int) *HealthHandler {
	return &HealthHandler{
		db:             db,
		redis:          redis,
		textProviders:  textProviders,
		audioProviders: audioProviders,
	}
}

// Check handles GET /health. The database is the only hard dependency;
// Redis and provider availability are reported but never fail the check,
// because the cache serves hits without either.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	components := fiber.Map{
		"text_providers":  h.textProviders,
		"audio_providers": h.audioProviders,
	}

	if err := h.db.PingContext(ctx); err != nil {
		status = "degraded"
		components["database"] = "down: " + err.Error()
	} else {
		components["database"] = "ok"
	}

	if h.redis == nil {
		components["redis"] = "not configured"
	} else if err := h.redis.Ping(ctx); err != nil {
		components["redis"] = "down: " + err.Error()
	} else {
		components["redis"] = "ok"
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
