package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

const minPasswordLength = 8

// AdminService manages administrator accounts. Emails are unique among live
// accounts and passwords are stored as bcrypt hashes.
type AdminService struct {
	store storage.Store
	cost  int
}

func NewAdminService(store storage.Store) *AdminService {
	return &AdminService{store: store, cost: bcrypt.DefaultCost}
}

func (s *AdminService) List(ctx context.Context) ([]*models.Administrator, error) {
	admins, err := s.store.ListAdministrators(ctx)
	return admins, errors.Wrap(err, "list administrators")
}

func (s *AdminService) Get(ctx context.Context, id uint) (*models.Administrator, error) {
	admin, err := s.store.GetAdministrator(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get administrator")
	}
	return admin, nil
}

func (s *AdminService) Create(ctx context.Context, in models.AdministratorInput) (*models.Administrator, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.Wrap(ErrInvalidInput, "a valid email is required")
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.Administrator{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Email:        email,
		PasswordHash: hash,
	}
	err = s.store.Transaction(ctx, func(tx storage.Store) error {
		if err := checkEmail(ctx, tx, email, 0); err != nil {
			return err
		}
		return errors.Wrap(tx.CreateAdministrator(ctx, admin), "save administrator")
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *AdminService) Update(ctx context.Context, id uint, in models.AdministratorInput) (*models.Administrator, error) {
	var admin *models.Administrator
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		admin, err = tx.GetAdministrator(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "get administrator")
		}

		if name := strings.TrimSpace(in.Name); name != "" {
			admin.Name = name
		}
		if surname := strings.TrimSpace(in.Surname); surname != "" {
			admin.Surname = surname
		}
		if email := models.NormalizeEmail(in.Email); email != "" {
			if err := checkEmail(ctx, tx, email, admin.ID); err != nil {
				return err
			}
			admin.Email = email
		}
		if in.Password != "" {
			hash, err := s.hash(in.Password)
			if err != nil {
				return err
			}
			admin.PasswordHash = hash
		}
		return notFound(tx.UpdateAdministrator(ctx, admin), ErrNotFound, "update administrator")
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *AdminService) Delete(ctx context.Context, id uint) error {
	return notFound(s.store.DeleteAdministrator(ctx, id), ErrNotFound, "delete administrator")
}

func (s *AdminService) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errors.Wrapf(ErrInvalidInput, "contrasena must have at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func checkEmail(ctx context.Context, tx storage.Store, email string, self uint) error {
	existing, err := tx.GetAdministratorByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "check email")
	}
	if existing.ID != self {
		return errors.Wrapf(ErrConflict, "email %s is already registered", email)
	}
	return nil
}
