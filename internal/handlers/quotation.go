package handlers

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// QuotationHandler serves /api/cotizacion.
type QuotationHandler struct {
	quotations *services.QuotationService
	codes      *services.VerificationService
}

func NewQuotationHandler(quotations *services.QuotationService, codes *services.VerificationService) *QuotationHandler {
	return &QuotationHandler{
		quotations: quotations,
		codes:      codes,
	}
}

type codeRequest struct {
	Code string `json:"codigo_verificacion" form:"codigo_verificacion"`
}

func (h *QuotationHandler) List(c *fiber.Ctx) error {
	list, err := h.quotations.List(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Recursos encontrados", "La lista de recursos fue encontrada exitosamente", list)
}

func (h *QuotationHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	q, err := h.quotations.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return found(c, q)
}

// Create opens a quotation for the destination in the path. Unresolved codes
// and destinations answer 409.
func (h *QuotationHandler) Create(c *fiber.Ctx) error {
	destID, err := paramID(c, "destino_id")
	if err != nil {
		return err
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	q, err := h.quotations.Create(c.UserContext(), services.CreateQuotationInput{
		Code:          c.FormValue("codigo_verificacion"),
		DestinationID: destID,
		Category:      c.FormValue("categoria"),
		IDImage:       image,
	})
	if errors.Is(err, services.ErrNotFound) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return created(c, q)
}

func (h *QuotationHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var destID uint
	if raw := c.FormValue("destino_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "destino_id debe ser un id valido")
		}
		destID = uint(n)
	}

	image, closeImage, err := formImage(c)
	if err != nil {
		return err
	}
	defer closeImage()

	q, err := h.quotations.Update(c.UserContext(), id, services.UpdateQuotationInput{
		Code:          c.FormValue("codigo_verificacion"),
		DestinationID: destID,
		PostalCode:    c.FormValue("codigo_postal"),
		Category:      c.FormValue("categoria"),
		IDImage:       image,
	})
	if err != nil {
		return err
	}
	return updated(c, q)
}

func (h *QuotationHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req codeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.quotations.Delete(c.UserContext(), id, req.Code); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Recurso eliminado", "La cotizacion fue eliminada exitosamente", nil)
}

// SendSMS issues a verification code to the client in the path. The code is
// only delivered by SMS, never in the response.
func (h *QuotationHandler) SendSMS(c *fiber.Ctx) error {
	clientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.codes.Issue(c.UserContext(), clientID); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Mensaje enviado", "El mensaje fue enviado con exito", nil)
}

func (h *QuotationHandler) Accept(c *fiber.Ctx) error {
	return h.decide(c, models.DecisionAccept)
}

func (h *QuotationHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, models.DecisionReject)
}

func (h *QuotationHandler) decide(c *fiber.Ctx, d models.Decision) error {
	id, err := paramID(c, "cotizacion")
	if err != nil {
		return err
	}
	var req codeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	q, err := h.quotations.Decide(c.UserContext(), id, req.Code, d)
	if err != nil {
		return err
	}
	return updated(c, q)
}

// formImage opens the optional "ine" upload. A missing file yields a nil
// reader; the service decides whether that is acceptable.
func formImage(c *fiber.Ctx) (io.Reader, func(), error) {
	fh, err := c.FormFile("ine")
	if err != nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "open upload")
	}
	return f, func() { _ = f.Close() }, nil
}
