package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store       storage.Store
	version     string
	environment string
	storage     string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store, version, environment, storageType string) *HealthHandler {
	return &HealthHandler{
		store:       store,
		version:     version,
		environment: environment,
		storage:     storageType,
	}
}

// Check pings the store and reports row counts. An unreachable store
// answers 503.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	response := fiber.Map{
		"service":     "Cotizaciones Backend",
		"version":     h.version,
		"environment": h.environment,
		"storage":     h.storage,
	}

	if err := h.store.Ping(ctx); err != nil {
		response["status"] = "unhealthy"
		response["database"] = fiber.Map{"status": "error: " + err.Error()}
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	database := fiber.Map{"status": "connected"}
	if counts, err := h.store.Counts(ctx); err == nil {
		database["clientes"] = counts.Clients
		database["destinos"] = counts.Destinations
		database["origenes"] = counts.Origins
		database["cotizaciones"] = counts.Quotations
		database["codigos"] = counts.Codes
	}
	response["status"] = "healthy"
	response["database"] = database
	return c.JSON(response)
}
