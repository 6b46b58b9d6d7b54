package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go/client"
)

// ValidateTwilioSignature rejects webhook calls whose X-Twilio-Signature
// does not match authToken. publicURL is the address Twilio was given; when
// empty the URL is rebuilt from the request, which breaks behind proxies
// that rewrite the host.
func ValidateTwilioSignature(authToken, publicURL string) fiber.Handler {
	validator := client.NewRequestValidator(authToken)

	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Twilio-Signature")
		if signature == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Twilio signature")
		}

		url := publicURL
		if url == "" {
			url = c.BaseURL() + c.OriginalURL()
		}

		params := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		if !validator.Validate(url, params, signature) {
			log.Warn().Str("url", url).Msg("rejected webhook with invalid Twilio signature")
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid signature")
		}
		return c.Next()
	}
}
