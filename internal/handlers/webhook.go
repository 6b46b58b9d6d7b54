package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// SMSStatusHandler receives Twilio delivery reports for verification code
// messages.
type SMSStatusHandler struct {
	metrics *services.Metrics
}

func NewSMSStatusHandler(metrics *services.Metrics) *SMSStatusHandler {
	return &SMSStatusHandler{metrics: metrics}
}

// Handle counts undelivered messages. Twilio only needs a 2xx back.
func (h *SMSStatusHandler) Handle(c *fiber.Ctx) error {
	status := c.FormValue("MessageStatus")
	logger := log.With().
		Str("sid", c.FormValue("MessageSid")).
		Str("to", c.FormValue("To")).
		Str("status", status).
		Logger()

	switch status {
	case "failed", "undelivered":
		h.metrics.NotificationsFailed.WithLabelValues("sms").Inc()
		logger.Warn().Str("error_code", c.FormValue("ErrorCode")).Msg("verification SMS not delivered")
	default:
		logger.Debug().Msg("SMS status update")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
