package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// ClientHandler serves /api/cliente.
type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) List(c *fiber.Ctx) error {
	list, err := h.clients.List(c.UserContext())
	if err != nil {
		return err
	}
	return found(c, list)
}

func (h *ClientHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	client, err := h.clients.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return found(c, client)
}

func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in models.ClientInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	client, err := h.clients.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, client)
}

func (h *ClientHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in models.ClientInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	client, err := h.clients.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return updated(c, client)
}

func (h *ClientHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.clients.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return deleted(c)
}

// DestinationHandler serves /api/destino.
type DestinationHandler struct {
	destinations *services.DestinationService
}

func NewDestinationHandler(destinations *services.DestinationService) *DestinationHandler {
	return &DestinationHandler{destinations: destinations}
}

func (h *DestinationHandler) List(c *fiber.Ctx) error {
	list, err := h.destinations.List(c.UserContext())
	if err != nil {
		return err
	}
	return found(c, list)
}

func (h *DestinationHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	dest, err := h.destinations.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return found(c, dest)
}

func (h *DestinationHandler) Create(c *fiber.Ctx) error {
	var in models.DestinationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	dest, err := h.destinations.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, dest)
}

func (h *DestinationHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in models.DestinationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	dest, err := h.destinations.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return updated(c, dest)
}

func (h *DestinationHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.destinations.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return deleted(c)
}

// OriginHandler serves /api/origen.
type OriginHandler struct {
	origins *services.OriginService
}

func NewOriginHandler(origins *services.OriginService) *OriginHandler {
	return &OriginHandler{origins: origins}
}

func (h *OriginHandler) List(c *fiber.Ctx) error {
	list, err := h.origins.List(c.UserContext())
	if err != nil {
		return err
	}
	return found(c, list)
}

func (h *OriginHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	origin, err := h.origins.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return found(c, origin)
}

func (h *OriginHandler) Create(c *fiber.Ctx) error {
	var in services.OriginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	origin, err := h.origins.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, origin)
}

func (h *OriginHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.OriginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	origin, err := h.origins.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return updated(c, origin)
}

func (h *OriginHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.origins.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return deleted(c)
}
