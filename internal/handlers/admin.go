package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fletes-mx/cotizaciones-backend/internal/middleware"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

// AdminHandler handles administrator management. Every route sits behind
// middleware.RequireAdmin.
type AdminHandler struct {
	admins *services.AdminService
	store  storage.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admins *services.AdminService, store storage.Store) *AdminHandler {
	return &AdminHandler{
		admins: admins,
		store:  store,
	}
}

func (h *AdminHandler) List(c *fiber.Ctx) error {
	list, err := h.admins.List(c.UserContext())
	if err != nil {
		return err
	}
	return found(c, list)
}

func (h *AdminHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	admin, err := h.admins.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return found(c, admin)
}

// Me returns the administrator the bearer token belongs to.
func (h *AdminHandler) Me(c *fiber.Ctx) error {
	admin, err := h.admins.Get(c.UserContext(), middleware.AdminID(c))
	if err != nil {
		return err
	}
	return found(c, admin)
}

func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var in models.AdministratorInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	admin, err := h.admins.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, admin)
}

func (h *AdminHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in models.AdministratorInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	admin, err := h.admins.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return updated(c, admin)
}

func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if id == middleware.AdminID(c) {
		return fiber.NewError(fiber.StatusConflict, "Un administrador no puede eliminarse a si mismo")
	}
	if err := h.admins.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return deleted(c)
}

// Overview reports how many live rows each table holds.
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	counts, err := h.store.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return found(c, fiber.Map{
		"clientes":     counts.Clients,
		"destinos":     counts.Destinations,
		"origenes":     counts.Origins,
		"cotizaciones": counts.Quotations,
		"codigos":      counts.Codes,
	})
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"contrasena"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email y contrasena son obligatorios")
	}
	token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Sesion iniciada", "Inicio de sesion exitoso", fiber.Map{"token": token})
}
