package services

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// Dispatcher assembles SMS and email payloads and hands them to the
// delivery channels. Errors come back wrapped in ErrExternalService.
type Dispatcher struct {
	sms         SMSSender
	mail        Mailer
	attachments AttachmentStore
	templates   *TemplateService
	notifyTo    string
	log         zerolog.Logger
}

func NewDispatcher(sms SMSSender, mail Mailer, attachments AttachmentStore, templates *TemplateService, notifyTo string) *Dispatcher {
	return &Dispatcher{
		sms:         sms,
		mail:        mail,
		attachments: attachments,
		templates:   templates,
		notifyTo:    notifyTo,
		log:         log.With().Str("component", "dispatcher").Logger(),
	}
}

// CodeMessage is the SMS body carrying a verification code.
func CodeMessage(code string) string {
	return "Tu codigo es: " + code
}

// SendCode texts a verification code to phone.
func (d *Dispatcher) SendCode(ctx context.Context, phone, code string) error {
	if err := d.sms.SendSMS(ctx, phone, CodeMessage(code)); err != nil {
		return external(err, "send verification SMS")
	}
	return nil
}

// DecisionNotice carries what the decision email shows.
type DecisionNotice struct {
	Quotation   *models.Quotation
	Client      *models.Client
	Destination *models.Destination
}

// SendDecision emails the accept/reject outcome with the client's
// identification image attached.
func (d *Dispatcher) SendDecision(ctx context.Context, n DecisionNotice) error {
	name := "quotation_rejected"
	if n.Quotation.Status == models.StatusAccepted {
		name = "quotation_accepted"
	}

	subject, html, err := d.templates.Render(name, map[string]any{
		"folio":                n.Quotation.Folio,
		"precio":               n.Quotation.Price,
		"categoria":            string(n.Quotation.Category),
		"aprobada":             string(n.Quotation.Status),
		"codigo_verificacion":  n.Quotation.VerificationCode,
		"destino":              n.Destination.State,
		"total_km":             n.Destination.Km,
		"precio_km":            n.Destination.PricePerKm,
		"porcentaje_categoria": n.Quotation.CategoryPercentage,
		"cliente":              n.Client.Name,
	})
	if err != nil {
		return err
	}

	email := Email{To: d.notifyTo, Subject: subject, HTML: html}
	if n.Quotation.IDImage != "" {
		attachment, err := d.readAttachment(ctx, n.Quotation.IDImage)
		if err != nil {
			return external(err, "read identification image")
		}
		email.Attachment = attachment
	}

	if err := d.mail.Send(ctx, email); err != nil {
		return external(err, "send decision email")
	}
	d.log.Info().Str("folio", n.Quotation.Folio).Str("estado", string(n.Quotation.Status)).Msg("decision email sent")
	return nil
}

func (d *Dispatcher) readAttachment(ctx context.Context, path string) (*Attachment, error) {
	rc, err := d.attachments.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return &Attachment{Name: filepath.Base(path), Data: data}, nil
}
