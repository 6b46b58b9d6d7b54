package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

func TestTemplateService_Render(t *testing.T) {
	ts, err := NewTemplateService()
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	params := map[string]any{
		"folio": "FO-A-00042", "precio": 50.0, "categoria": "clase_media", "aprobada": "rechazada",
		"codigo_verificacion": "ABC123", "destino": "Jalisco", "total_km": 100.0, "precio_km": 5.0,
		"porcentaje_categoria": 10, "cliente": "<Ana>",
	}
	subject, html, err := ts.Render("quotation_rejected", params)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "Cotización rechazada" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(html, "rechazado") || !strings.Contains(html, "$50.00") {
		t.Errorf("unexpected body: %s", html)
	}
	if strings.Contains(html, "<Ana>") || !strings.Contains(html, "&lt;Ana&gt;") {
		t.Error("client name must be HTML escaped")
	}

	delete(params, "folio")
	if _, _, err := ts.Render("quotation_rejected", params); err == nil {
		t.Error("expected error for missing parameter")
	}
	if _, _, err := ts.Render("unknown", params); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestDispatcher_SendCodeFailure(t *testing.T) {
	ts, _ := NewTemplateService()
	sms := &fakeSMS{err: errors.New("invalid number")}
	d := NewDispatcher(sms, &fakeMailer{}, NewLocalAttachments(t.TempDir()), ts, "ops@example.com")

	if err := d.SendCode(context.Background(), "+521", "ABC123"); !errors.Is(err, ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}

func TestDispatcher_SendDecisionWithoutImage(t *testing.T) {
	ts, _ := NewTemplateService()
	mail := &fakeMailer{}
	d := NewDispatcher(&fakeSMS{}, mail, NewLocalAttachments(t.TempDir()), ts, "ops@example.com")

	err := d.SendDecision(context.Background(), DecisionNotice{
		Quotation:   &models.Quotation{Folio: "FO-A-00001", Status: models.StatusAccepted, Category: models.CategoryCommercial, Price: 500},
		Client:      &models.Client{Name: "Ana"},
		Destination: &models.Destination{State: "Nuevo León", Km: 100, PricePerKm: 5},
	})
	if err != nil {
		t.Fatalf("SendDecision failed: %v", err)
	}
	if len(mail.sent) != 1 || mail.sent[0].Attachment != nil {
		t.Errorf("expected one email without attachment, got %+v", mail.sent)
	}

	err = d.SendDecision(context.Background(), DecisionNotice{
		Quotation:   &models.Quotation{Folio: "FO-A-00002", Status: models.StatusAccepted, IDImage: "/nonexistent/ABC123.jpg"},
		Client:      &models.Client{Name: "Ana"},
		Destination: &models.Destination{},
	})
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("missing image: expected ErrExternalService, got %v", err)
	}
}
