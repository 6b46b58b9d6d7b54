package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

// OriginInput is the body accepted on create and update.
type OriginInput struct {
	PostalCode string `json:"codigo_postal"`
}

type OriginService struct {
	store    storage.Store
	geocoder Geocoder
}

func NewOriginService(store storage.Store, geocoder Geocoder) *OriginService {
	return &OriginService{store: store, geocoder: geocoder}
}

func (s *OriginService) List(ctx context.Context) ([]*models.Origin, error) {
	origins, err := s.store.ListOrigins(ctx)
	return origins, errors.Wrap(err, "list origins")
}

func (s *OriginService) Get(ctx context.Context, id uint) (*models.Origin, error) {
	origin, err := s.store.GetOrigin(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get origin")
	}
	return origin, nil
}

func (s *OriginService) Create(ctx context.Context, in OriginInput) (*models.Origin, error) {
	place, err := lookupPlace(ctx, s.geocoder, in.PostalCode)
	if err != nil {
		return nil, err
	}

	origin := &models.Origin{}
	applyPlace(&origin.PostalCode, &origin.Country, &origin.City, &origin.State, place)
	if err := s.store.CreateOrigin(ctx, origin); err != nil {
		return nil, errors.Wrap(err, "save origin")
	}
	return origin, nil
}

func (s *OriginService) Update(ctx context.Context, id uint, in OriginInput) (*models.Origin, error) {
	origin, err := s.store.GetOrigin(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get origin")
	}
	place, err := lookupPlace(ctx, s.geocoder, in.PostalCode)
	if err != nil {
		return nil, err
	}

	applyPlace(&origin.PostalCode, &origin.Country, &origin.City, &origin.State, place)
	if err := s.store.UpdateOrigin(ctx, origin); err != nil {
		return nil, notFound(err, ErrNotFound, "update origin")
	}
	return origin, nil
}

func (s *OriginService) Delete(ctx context.Context, id uint) error {
	return notFound(s.store.DeleteOrigin(ctx, id), ErrNotFound, "delete origin")
}
