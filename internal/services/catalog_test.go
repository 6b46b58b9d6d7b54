package services

import (
	"context"
	"errors"
	"testing"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

func TestClientService(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewClientService(store, "+52")
	ctx := context.Background()

	ana, err := svc.Create(ctx, models.ClientInput{Name: " Ana ", Surname: "Lopez", Phone: "81 8091 9984"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ana.Phone != "+528180919984" || ana.Name != "Ana" {
		t.Errorf("unexpected client %+v", ana)
	}

	t.Run("duplicate phone", func(t *testing.T) {
		_, err := svc.Create(ctx, models.ClientInput{Name: "Otra", Phone: "+528180919984"})
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Create(ctx, models.ClientInput{Name: "Sin telefono"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		luis, err := svc.Create(ctx, models.ClientInput{Name: "Luis", Phone: "8111111111"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := svc.Update(ctx, luis.ID, models.ClientInput{Phone: "8180919984"}); !errors.Is(err, ErrConflict) {
			t.Errorf("taking another client's phone: expected ErrConflict, got %v", err)
		}
		updated, err := svc.Update(ctx, luis.ID, models.ClientInput{Surname: "Garza", Phone: "8111111111"})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Surname != "Garza" || updated.Name != "Luis" {
			t.Errorf("unexpected update result %+v", updated)
		}
	})

	t.Run("delete frees the phone", func(t *testing.T) {
		if err := svc.Delete(ctx, ana.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, ana.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := svc.Create(ctx, models.ClientInput{Name: "Ana", Phone: "+528180919984"}); err != nil {
			t.Errorf("phone of a deleted client should be reusable: %v", err)
		}
	})
}

func TestDestinationService(t *testing.T) {
	store := storage.NewMemoryStore()
	geo := &fakeGeocoder{places: map[string]models.Place{
		"64000": {PostalCode: "64000", Country: "México", City: "Monterrey", State: "Nuevo León"},
		"44100": {PostalCode: "44100", Country: "México", City: "Guadalajara", State: "Jalisco"},
	}}
	svc := NewDestinationService(store, geo)
	ctx := context.Background()

	dest, err := svc.Create(ctx, models.DestinationInput{PostalCode: "64000", Km: 100, PricePerKm: 5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if dest.City != "Monterrey" || dest.State != "Nuevo León" || dest.Km != 100 || dest.PricePerKm != 5 {
		t.Errorf("unexpected destination %+v", dest)
	}

	updated, err := svc.Update(ctx, dest.ID, models.DestinationInput{PostalCode: "44100", Km: 550, PricePerKm: 6})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.City != "Guadalajara" || updated.Km != 550 {
		t.Errorf("unexpected update %+v", updated)
	}

	got, _ := svc.Get(ctx, dest.ID)
	if got.PostalCode != "44100" {
		t.Errorf("update not persisted: %+v", got)
	}

	for _, cp := range []string{"6400", "640001", "64a00"} {
		if _, err := svc.Create(ctx, models.DestinationInput{PostalCode: cp, Km: 1, PricePerKm: 1}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("postal code %q: expected ErrInvalidInput, got %v", cp, err)
		}
	}

	geo.err = external(errors.New("down"), "geocode")
	if _, err := svc.Create(ctx, models.DestinationInput{PostalCode: "01000", Km: 1, PricePerKm: 1}); !errors.Is(err, ErrExternalService) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}

	if err := svc.Delete(ctx, dest.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("deleted destination listed: %+v", list)
	}
}

func TestOriginService(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOriginService(store, &fakeGeocoder{places: map[string]models.Place{
		"64000": {PostalCode: "64000", Country: "México", City: "Monterrey", State: "Nuevo León"},
	}})
	ctx := context.Background()

	origin, err := svc.Create(ctx, OriginInput{PostalCode: "64000"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if origin.City != "Monterrey" {
		t.Errorf("unexpected origin %+v", origin)
	}

	if _, err := svc.Update(ctx, origin.ID, OriginInput{PostalCode: "1"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Delete(ctx, origin.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, origin.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
