package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// Envelope is the body every endpoint answers with.
type Envelope struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	typeSuccess = "Exitoso"
	typeError   = "error"
)

func respond(c *fiber.Ctx, status int, title, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{
		Type:    typeSuccess,
		Title:   title,
		Message: message,
		Data:    data,
	})
}

func found(c *fiber.Ctx, data interface{}) error {
	return respond(c, fiber.StatusOK, "Recurso encontrado", "El recurso fue encontrado exitosamente", data)
}

func created(c *fiber.Ctx, data interface{}) error {
	return respond(c, fiber.StatusCreated, "Recurso creado", "El recurso fue creado exitosamente", data)
}

func updated(c *fiber.Ctx, data interface{}) error {
	return respond(c, fiber.StatusOK, "Recurso actualizado", "El recurso fue actualizado exitosamente", data)
}

func deleted(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "Recurso eliminado", "El recurso fue eliminado exitosamente", nil)
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidCode), errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrMissingAttachment),
		errors.Is(err, services.ErrInvalidState):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func titleFor(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Solicitud invalida"
	case fiber.StatusUnauthorized:
		return "No autorizado"
	case fiber.StatusNotFound:
		return "Recurso no encontrado"
	case fiber.StatusConflict:
		return "Error de cliente"
	default:
		return "Error del servidor"
	}
}

// ErrorHandler renders every error returned by a handler in the envelope.
// Server errors keep their message so operators can read it from the
// response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(Envelope{
		Type:    typeError,
		Title:   titleFor(status),
		Message: err.Error(),
	})
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "El parametro "+name+" debe ser un id valido")
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la solicitud invalido")
	}
	return nil
}
