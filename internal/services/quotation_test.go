package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

func image() *strings.Reader {
	return strings.NewReader("\xff\xd8\xff\xe0 fake jpeg")
}

func TestQuotationService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	code := h.issue(t, client.ID)

	q, err := h.quotations.Create(ctx, CreateQuotationInput{
		Code:          strings.ToLower(code),
		DestinationID: dest.ID,
		Category:      "clase_media",
		IDImage:       image(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if q.Price != 50 || q.CategoryPercentage != 10 || q.Category != models.CategoryMidClass {
		t.Errorf("unexpected pricing: precio=%v pct=%d cat=%s", q.Price, q.CategoryPercentage, q.Category)
	}
	if q.Status != models.StatusPending {
		t.Errorf("status = %q, want pendiente", q.Status)
	}
	if q.ClientID != client.ID || q.DestinationID != dest.ID {
		t.Errorf("wrong relations: %+v", q)
	}
	if q.VerificationCode != code {
		t.Errorf("stored code %q, want %q", q.VerificationCode, code)
	}
	if !regexp.MustCompile(`^FO-A-\d{5}$`).MatchString(q.Folio) {
		t.Errorf("unexpected folio %q", q.Folio)
	}
	if filepath.Dir(q.IDImage) != h.uploadDir || !strings.HasPrefix(filepath.Base(q.IDImage), code+"-"+q.Folio+"-") {
		t.Errorf("unexpected image path %q", q.IDImage)
	}
	if _, err := os.Stat(q.IDImage); err != nil {
		t.Errorf("image not written: %v", err)
	}

	// creation only looks the code up
	if _, err := h.codes.Lookup(ctx, code); err != nil {
		t.Errorf("code should still be unconsumed after create: %v", err)
	}

	got, err := h.quotations.Get(ctx, q.ID)
	if err != nil || got.Folio != q.Folio {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if n := testutil.ToFloat64(h.metrics.QuotationsCreated.WithLabelValues("clase_media")); n != 1 {
		t.Errorf("created counter = %v, want 1", n)
	}
}

func TestQuotationService_CreateFailures(t *testing.T) {
	tests := []struct {
		name    string
		code    func(valid string) string
		dest    func(valid uint) uint
		cat     string
		noImage bool
		want    error
	}{
		{"unknown code", func(string) string { return "ZZZ000" }, func(d uint) uint { return d }, "comercial", false, ErrClientNotFound},
		{"unknown destination", func(c string) string { return c }, func(uint) uint { return 999 }, "comercial", false, ErrDestinationNotFound},
		{"unknown category", func(c string) string { return c }, func(d uint) uint { return d }, "economica", false, ErrInvalidCategory},
		{"missing image", func(c string) string { return c }, func(d uint) uint { return d }, "comercial", true, ErrMissingAttachment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			client := h.addClient(t, "Ana", "+528180919984")
			dest := h.addDestination(t, "64000", 100, 5)
			code := h.issue(t, client.ID)

			in := CreateQuotationInput{Code: tt.code(code), DestinationID: tt.dest(dest.ID), Category: tt.cat}
			if !tt.noImage {
				in.IDImage = image()
			}

			_, err := h.quotations.Create(ctx, in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			list, _ := h.quotations.List(ctx)
			if len(list) != 0 {
				t.Errorf("failed create persisted %d quotations", len(list))
			}
			entries, _ := os.ReadDir(h.uploadDir)
			if len(entries) != 0 {
				t.Errorf("failed create left %d files behind", len(entries))
			}
		})
	}
}

func createQuotation(t *testing.T, h *harness, client *models.Client, dest *models.Destination, category string) (*models.Quotation, string) {
	t.Helper()
	code := h.issue(t, client.ID)
	q, err := h.quotations.Create(context.Background(), CreateQuotationInput{
		Code: code, DestinationID: dest.ID, Category: category, IDImage: image(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return q, code
}

func TestQuotationService_Accept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, code := createQuotation(t, h, client, dest, "primera_clase")

	decided, err := h.quotations.Decide(ctx, q.ID, code, models.DecisionAccept)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.StatusAccepted {
		t.Errorf("status = %q, want aceptada", decided.Status)
	}

	stored, _ := h.quotations.Get(ctx, q.ID)
	if stored.Status != models.StatusAccepted {
		t.Errorf("stored status = %q, want aceptada", stored.Status)
	}
	if _, err := h.codes.ValidateAndConsume(ctx, code); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("code should be consumed by the decision, got %v", err)
	}

	if len(h.mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(h.mail.sent))
	}
	email := h.mail.sent[0]
	if email.To != "ops@example.com" || email.Subject != "Cotización aceptada" {
		t.Errorf("unexpected email header: to=%q subject=%q", email.To, email.Subject)
	}
	for _, want := range []string{q.Folio, "Ana", "Nuevo León", "125.00", "primera_clase", code} {
		if !strings.Contains(email.HTML, want) {
			t.Errorf("email body missing %q", want)
		}
	}
	if email.Attachment == nil || email.Attachment.Name != filepath.Base(q.IDImage) {
		t.Errorf("unexpected attachment %+v", email.Attachment)
	}
	if n := testutil.ToFloat64(h.metrics.QuotationDecisions.WithLabelValues("aceptada")); n != 1 {
		t.Errorf("decisions counter = %v, want 1", n)
	}
}

func TestQuotationService_SecondDecisionKeepsCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, first := createQuotation(t, h, client, dest, "comercial")
	second := h.issue(t, client.ID)

	if _, err := h.quotations.Decide(ctx, q.ID, first, models.DecisionReject); err != nil {
		t.Fatalf("first Decide failed: %v", err)
	}

	_, err := h.quotations.Decide(ctx, q.ID, second, models.DecisionAccept)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if !strings.Contains(err.Error(), "rechazada") {
		t.Errorf("error should name the current status: %v", err)
	}

	if _, err := h.codes.Lookup(ctx, second); err != nil {
		t.Errorf("second code must stay unconsumed: %v", err)
	}
	stored, _ := h.quotations.Get(ctx, q.ID)
	if stored.Status != models.StatusRejected {
		t.Errorf("status = %q, want rechazada", stored.Status)
	}
	if h.mail.sent[0].Subject != "Cotización rechazada" {
		t.Errorf("unexpected subject %q", h.mail.sent[0].Subject)
	}
}

func TestQuotationService_DecideInvalidCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ana := h.addClient(t, "Ana", "+528180919984")
	luis := h.addClient(t, "Luis", "+528111111111")
	dest := h.addDestination(t, "64000", 100, 5)
	q, _ := createQuotation(t, h, ana, dest, "comercial")
	foreign := h.issue(t, luis.ID)

	if _, err := h.quotations.Decide(ctx, q.ID, "NOP000", models.DecisionAccept); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("unknown code: expected ErrInvalidCode, got %v", err)
	}

	if _, err := h.quotations.Decide(ctx, q.ID, foreign, models.DecisionAccept); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("foreign code: expected ErrInvalidCode, got %v", err)
	}
	if _, err := h.codes.Lookup(ctx, foreign); err != nil {
		t.Errorf("foreign code consumption should roll back: %v", err)
	}

	stored, _ := h.quotations.Get(ctx, q.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("status = %q, want pendiente", stored.Status)
	}
	if len(h.mail.sent) != 0 {
		t.Error("no email should be sent for a failed decision")
	}
}

func TestQuotationService_DecideMissing(t *testing.T) {
	h := newHarness(t)
	_, err := h.quotations.Decide(context.Background(), 404, "ABC123", models.DecisionAccept)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuotationService_DecisionSurvivesMailFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, code := createQuotation(t, h, client, dest, "comercial")
	h.mail.err = errors.New("smtp down")

	decided, err := h.quotations.Decide(ctx, q.ID, code, models.DecisionAccept)
	if err != nil {
		t.Fatalf("Decide should succeed when email fails, got %v", err)
	}
	if decided.Status != models.StatusAccepted {
		t.Errorf("status = %q, want aceptada", decided.Status)
	}
	if n := testutil.ToFloat64(h.metrics.NotificationsFailed.WithLabelValues("email")); n != 1 {
		t.Errorf("failed notifications = %v, want 1", n)
	}
}

func TestQuotationService_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	first := h.addDestination(t, "64000", 100, 5)
	second := h.addDestination(t, "44100", 200, 4)
	q, _ := createQuotation(t, h, client, first, "comercial")
	newCode := h.issue(t, client.ID)

	_, err := h.quotations.Update(ctx, q.ID, UpdateQuotationInput{
		Code: newCode, PostalCode: "44100", Category: "primera_clase", IDImage: image(),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := h.quotations.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DestinationID != second.ID || got.Category != models.CategoryFirstClass {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Price != 200 || got.CategoryPercentage != 25 {
		t.Errorf("re-pricing wrong: precio=%v pct=%d", got.Price, got.CategoryPercentage)
	}
	if got.VerificationCode != newCode || got.Folio != q.Folio {
		t.Errorf("unexpected code/folio: %+v", got)
	}
	if _, err := os.Stat(q.IDImage); !os.IsNotExist(err) {
		t.Errorf("old image should be removed: %v", err)
	}
	if _, err := os.Stat(got.IDImage); err != nil {
		t.Errorf("new image missing: %v", err)
	}
}

func TestQuotationService_UpdateFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, code := createQuotation(t, h, client, dest, "comercial")

	tests := []struct {
		name string
		id   uint
		in   UpdateQuotationInput
		want error
	}{
		{"missing quotation", 999, UpdateQuotationInput{Code: code, DestinationID: dest.ID, Category: "comercial", IDImage: image()}, ErrNotFound},
		{"missing image", q.ID, UpdateQuotationInput{Code: code, DestinationID: dest.ID, Category: "comercial"}, ErrMissingAttachment},
		{"unknown postal code", q.ID, UpdateQuotationInput{Code: code, PostalCode: "99999", Category: "comercial", IDImage: image()}, ErrDestinationNotFound},
		{"no destination", q.ID, UpdateQuotationInput{Code: code, Category: "comercial", IDImage: image()}, ErrInvalidInput},
		{"bad category", q.ID, UpdateQuotationInput{Code: code, DestinationID: dest.ID, Category: "vip", IDImage: image()}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.quotations.Update(ctx, tt.id, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, _ := h.quotations.Get(ctx, q.ID)
	if got.Price != q.Price || got.Category != q.Category {
		t.Errorf("failed updates changed the quotation: %+v", got)
	}
}

func TestQuotationService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, code := createQuotation(t, h, client, dest, "comercial")

	if err := h.quotations.Delete(ctx, q.ID, "NOP000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown code: expected ErrNotFound, got %v", err)
	}

	// consumed codes still authorize deletion
	if _, err := h.quotations.Decide(ctx, q.ID, code, models.DecisionAccept); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if err := h.quotations.Delete(ctx, q.ID, code); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := h.quotations.Get(ctx, q.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted quotation still visible: %v", err)
	}
	list, _ := h.quotations.List(ctx)
	if len(list) != 0 {
		t.Errorf("deleted quotation listed: %+v", list)
	}
	if err := h.quotations.Delete(ctx, q.ID, code); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting twice: expected ErrNotFound, got %v", err)
	}
}

func TestQuotationService_TokenFolio(t *testing.T) {
	h := newHarness(t)
	h.quotations = NewQuotationService(h.store, h.codes, h.attachments, nil, h.metrics, "token")
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)

	q, _ := createQuotation(t, h, client, dest, "comercial")
	if !regexp.MustCompile(`^[0-9A-F]{12}$`).MatchString(q.Folio) {
		t.Errorf("unexpected token folio %q", q.Folio)
	}
}

func TestQuotationService_SharedCodeKeepsOtherImages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	first, code := createQuotation(t, h, client, dest, "comercial")

	second, err := h.quotations.Create(ctx, CreateQuotationInput{
		Code: code, DestinationID: dest.ID, Category: "clase_media", IDImage: image(),
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.IDImage == first.IDImage {
		t.Fatalf("quotations opened with one code share image %q", first.IDImage)
	}

	newCode := h.issue(t, client.ID)
	if _, err := h.quotations.Update(ctx, second.ID, UpdateQuotationInput{
		Code: newCode, DestinationID: dest.ID, Category: "comercial", IDImage: image(),
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := os.Stat(second.IDImage); !os.IsNotExist(err) {
		t.Errorf("replaced image of the updated quotation should be removed: %v", err)
	}
	if _, err := os.Stat(first.IDImage); err != nil {
		t.Fatalf("image of quotation %d lost after updating quotation %d: %v", first.ID, second.ID, err)
	}

	if _, err := h.quotations.Decide(ctx, first.ID, code, models.DecisionAccept); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(h.mail.sent) != 1 || h.mail.sent[0].Attachment == nil {
		t.Errorf("expected decision email with attachment, got %+v", h.mail.sent)
	}
}

// failingCreateStore rejects every new quotation after the image is saved.
type failingCreateStore struct {
	storage.Store
}

func (f failingCreateStore) Transaction(ctx context.Context, fn func(tx storage.Store) error) error {
	return f.Store.Transaction(ctx, func(tx storage.Store) error {
		return fn(failingCreateStore{tx})
	})
}

func (failingCreateStore) CreateQuotation(ctx context.Context, q *models.Quotation) error {
	return errors.New("insert failed")
}

func TestQuotationService_FailedCreateKeepsOtherImages(t *testing.T) {
	h := newHarness(t)
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	existing, code := createQuotation(t, h, client, dest, "comercial")

	failing := NewQuotationService(failingCreateStore{h.store}, h.codes, h.attachments, nil, h.metrics, config.FolioPrefixed)
	if _, err := failing.Create(context.Background(), CreateQuotationInput{
		Code: code, DestinationID: dest.ID, Category: "comercial", IDImage: image(),
	}); err == nil {
		t.Fatal("expected Create to fail")
	}

	if _, err := os.Stat(existing.IDImage); err != nil {
		t.Errorf("image of quotation %d removed by a failed create: %v", existing.ID, err)
	}
	entries, _ := os.ReadDir(h.uploadDir)
	if len(entries) != 1 {
		t.Errorf("expected only the existing image on disk, got %d files", len(entries))
	}
}

// racingDecideStore lets another decision land between the pending check
// and the status write.
type racingDecideStore struct {
	storage.Store
}

func (r racingDecideStore) Transaction(ctx context.Context, fn func(tx storage.Store) error) error {
	return r.Store.Transaction(ctx, func(tx storage.Store) error {
		return fn(racingDecideStore{tx})
	})
}

func (r racingDecideStore) DecideQuotation(ctx context.Context, id uint, status models.QuotationStatus) error {
	if err := r.Store.DecideQuotation(ctx, id, models.StatusRejected); err != nil {
		return err
	}
	return r.Store.DecideQuotation(ctx, id, status)
}

func TestQuotationService_ConcurrentDecisionFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	client := h.addClient(t, "Ana", "+528180919984")
	dest := h.addDestination(t, "64000", 100, 5)
	q, code := createQuotation(t, h, client, dest, "comercial")

	templates, _ := NewTemplateService()
	dispatcher := NewDispatcher(h.sms, h.mail, h.attachments, templates, "ops@example.com")
	racing := NewQuotationService(racingDecideStore{h.store}, h.codes, h.attachments, dispatcher, h.metrics, config.FolioPrefixed)

	_, err := racing.Decide(ctx, q.ID, code, models.DecisionAccept)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if !strings.Contains(err.Error(), "decided concurrently") {
		t.Errorf("error should say why the decision lost: %v", err)
	}
	if len(h.mail.sent) != 0 {
		t.Errorf("losing decision must not send email, got %d", len(h.mail.sent))
	}
	if _, err := h.codes.Lookup(ctx, code); err != nil {
		t.Errorf("code of the losing decision must stay unconsumed: %v", err)
	}
}
