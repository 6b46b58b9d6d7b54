package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

type sentSMS struct {
	To   string
	Body string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{To: to, Body: body})
	return nil
}

// lastCode pulls the code out of the most recent SMS body.
func (f *fakeSMS) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no SMS sent")
	}
	return strings.TrimPrefix(f.sent[len(f.sent)-1].Body, "Tu codigo es: ")
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, email Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakeGeocoder struct {
	places map[string]models.Place
	err    error
}

func (f *fakeGeocoder) Lookup(ctx context.Context, postalCode string) (*models.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.places[postalCode]
	if !ok {
		return &models.Place{PostalCode: postalCode, Country: "México"}, nil
	}
	return &p, nil
}

// harness wires the quotation workflow over a memory store with fake
// delivery channels and a temp upload dir.
type harness struct {
	store       *storage.MemoryStore
	sms         *fakeSMS
	mail        *fakeMailer
	attachments *LocalAttachments
	uploadDir   string
	metrics     *Metrics
	codes       *VerificationService
	quotations  *QuotationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	templates, err := NewTemplateService()
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	h := &harness{
		store:     storage.NewMemoryStore(),
		sms:       &fakeSMS{},
		mail:      &fakeMailer{},
		uploadDir: filepath.Join(t.TempDir(), "uploads"),
		metrics:   NewMetrics(),
	}
	h.attachments = NewLocalAttachments(h.uploadDir)
	dispatcher := NewDispatcher(h.sms, h.mail, h.attachments, templates, "ops@example.com")
	h.codes = NewVerificationService(h.store, dispatcher, h.metrics)
	h.quotations = NewQuotationService(h.store, h.codes, h.attachments, dispatcher, h.metrics, config.FolioPrefixed)
	return h
}

func (h *harness) addClient(t *testing.T, name, phone string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name, Phone: phone}
	if err := h.store.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}
	return c
}

func (h *harness) addDestination(t *testing.T, cp string, km, perKm float64) *models.Destination {
	t.Helper()
	d := &models.Destination{PostalCode: cp, State: "Nuevo León", Km: km, PricePerKm: perKm}
	if err := h.store.CreateDestination(context.Background(), d); err != nil {
		t.Fatalf("CreateDestination failed: %v", err)
	}
	return d
}

func (h *harness) issue(t *testing.T, clientID uint) string {
	t.Helper()
	code, err := h.codes.Issue(context.Background(), clientID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return code
}
