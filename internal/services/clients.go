package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

// ClientService manages the client catalog. Phones are stored in E.164 and
// must be unique among live clients.
type ClientService struct {
	store       storage.Store
	countryCode string
}

func NewClientService(store storage.Store, countryCode string) *ClientService {
	return &ClientService{store: store, countryCode: countryCode}
}

func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	clients, err := s.store.ListClients(ctx)
	return clients, errors.Wrap(err, "list clients")
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get client")
	}
	return client, nil
}

func (s *ClientService) Create(ctx context.Context, in models.ClientInput) (*models.Client, error) {
	client := &models.Client{
		Name:    strings.TrimSpace(in.Name),
		Surname: strings.TrimSpace(in.Surname),
		Phone:   models.NormalizePhone(in.Phone, s.countryCode),
	}
	if client.Name == "" || client.Phone == "" {
		return nil, errors.Wrap(ErrInvalidInput, "nombre and telefono are required")
	}

	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if err := s.checkPhone(ctx, tx, client.Phone, 0); err != nil {
			return err
		}
		return errors.Wrap(tx.CreateClient(ctx, client), "save client")
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, id uint, in models.ClientInput) (*models.Client, error) {
	var client *models.Client
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		client, err = tx.GetClient(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "get client")
		}

		if name := strings.TrimSpace(in.Name); name != "" {
			client.Name = name
		}
		if surname := strings.TrimSpace(in.Surname); surname != "" {
			client.Surname = surname
		}
		if in.Phone != "" {
			client.Phone = models.NormalizePhone(in.Phone, s.countryCode)
			if err := s.checkPhone(ctx, tx, client.Phone, client.ID); err != nil {
				return err
			}
		}
		return notFound(tx.UpdateClient(ctx, client), ErrNotFound, "update client")
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, id uint) error {
	return notFound(s.store.DeleteClient(ctx, id), ErrNotFound, "delete client")
}

func (s *ClientService) checkPhone(ctx context.Context, tx storage.Store, phone string, self uint) error {
	existing, err := tx.GetClientByPhone(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "check phone")
	}
	if existing.ID != self {
		return errors.Wrapf(ErrConflict, "phone %s is already registered", phone)
	}
	return nil
}
