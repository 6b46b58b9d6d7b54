package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
	"github.com/fletes-mx/cotizaciones-backend/internal/utils"
)

// DestinationService manages delivery postal codes. Place names come from
// the geocoder; distance and rate are entered by an administrator.
type DestinationService struct {
	store    storage.Store
	geocoder Geocoder
}

func NewDestinationService(store storage.Store, geocoder Geocoder) *DestinationService {
	return &DestinationService{store: store, geocoder: geocoder}
}

func (s *DestinationService) List(ctx context.Context) ([]*models.Destination, error) {
	dests, err := s.store.ListDestinations(ctx)
	return dests, errors.Wrap(err, "list destinations")
}

func (s *DestinationService) Get(ctx context.Context, id uint) (*models.Destination, error) {
	dest, err := s.store.GetDestination(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get destination")
	}
	return dest, nil
}

func (s *DestinationService) Create(ctx context.Context, in models.DestinationInput) (*models.Destination, error) {
	if err := validateDestination(in); err != nil {
		return nil, err
	}
	place, err := lookupPlace(ctx, s.geocoder, in.PostalCode)
	if err != nil {
		return nil, err
	}

	dest := &models.Destination{Km: in.Km, PricePerKm: in.PricePerKm}
	applyPlace(&dest.PostalCode, &dest.Country, &dest.City, &dest.State, place)

	if err := s.store.CreateDestination(ctx, dest); err != nil {
		return nil, errors.Wrap(err, "save destination")
	}
	return dest, nil
}

func (s *DestinationService) Update(ctx context.Context, id uint, in models.DestinationInput) (*models.Destination, error) {
	if err := validateDestination(in); err != nil {
		return nil, err
	}

	dest, err := s.store.GetDestination(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get destination")
	}
	place, err := lookupPlace(ctx, s.geocoder, in.PostalCode)
	if err != nil {
		return nil, err
	}

	applyPlace(&dest.PostalCode, &dest.Country, &dest.City, &dest.State, place)
	dest.Km = in.Km
	dest.PricePerKm = in.PricePerKm

	if err := s.store.UpdateDestination(ctx, dest); err != nil {
		return nil, notFound(err, ErrNotFound, "update destination")
	}
	return dest, nil
}

func (s *DestinationService) Delete(ctx context.Context, id uint) error {
	return notFound(s.store.DeleteDestination(ctx, id), ErrNotFound, "delete destination")
}

func validateDestination(in models.DestinationInput) error {
	if !utils.IsPostalCode(strings.TrimSpace(in.PostalCode)) {
		return errors.Wrap(ErrInvalidInput, "el código postal debe tener 5 dígitos")
	}
	if in.Km < 0 || in.PricePerKm < 0 {
		return errors.Wrap(ErrInvalidInput, "km and precio_km must not be negative")
	}
	return nil
}

func lookupPlace(ctx context.Context, geocoder Geocoder, postalCode string) (*models.Place, error) {
	postalCode = strings.TrimSpace(postalCode)
	if !utils.IsPostalCode(postalCode) {
		return nil, errors.Wrap(ErrInvalidInput, "el código postal debe tener 5 dígitos")
	}
	place, err := geocoder.Lookup(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	if place.PostalCode == "" {
		place.PostalCode = postalCode
	}
	return place, nil
}

func applyPlace(postalCode, country, city, state *string, place *models.Place) {
	*postalCode = place.PostalCode
	*country = place.Country
	*city = place.City
	*state = place.State
}
