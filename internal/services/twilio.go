package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
)

// SMSSender delivers a plain text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type TwilioService struct {
	client   *twilio.RestClient
	from     string
	callback string
	log      zerolog.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg config.SMSConfig) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, errors.New("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		client:   client,
		from:     cfg.FromNumber,
		callback: cfg.StatusCallbackURL,
		log:      log.With().Str("component", "twilio").Logger(),
	}, nil
}

// SendSMS sends an SMS via Twilio. The REST client has no context support;
// ctx is only checked before the call.
func (t *TwilioService) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)
	if t.callback != "" {
		params.SetStatusCallback(t.callback)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.log.Error().Err(err).Str("to", to).Msg("failed to send SMS")
		return err
	}

	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return errors.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Info().Str("sid", sid).Str("to", to).Msg("SMS sent")
	return nil
}
