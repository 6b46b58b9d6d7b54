package services

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
)

// Email is a single HTML message with an optional attachment.
type Email struct {
	To         string
	Subject    string
	HTML       string
	Attachment *Attachment
}

type Attachment struct {
	Name string
	Data []byte
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.Username,
		log:    log.With().Str("component", "mailer").Logger(),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	if a := email.Attachment; a != nil {
		msg.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(a.Data)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error().Err(err).Str("to", email.To).Str("subject", email.Subject).Msg("failed to send email")
		return err
	}

	m.log.Info().Str("to", email.To).Str("subject", email.Subject).Msg("email sent")
	return nil
}
