package storage

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// DatabaseStore implements Store over GORM. Soft-deleted rows are filtered
// by GORM's DeletedAt scope.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database storage
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseStore{db: tx})
	})
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.PingContext(ctx)
}

func (s *DatabaseStore) Counts(ctx context.Context) (*Counts, error) {
	db := s.db.WithContext(ctx)
	var c Counts
	for _, q := range []struct {
		model any
		dst   *int64
	}{
		{&models.Client{}, &c.Clients},
		{&models.Destination{}, &c.Destinations},
		{&models.Origin{}, &c.Origins},
		{&models.Quotation{}, &c.Quotations},
		{&models.VerificationCode{}, &c.Codes},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return nil, errors.Wrap(err, "count rows")
		}
	}
	return &c, nil
}

// first loads one row into dst and maps gorm.ErrRecordNotFound.
func first(db *gorm.DB, dst any, query any, args ...any) error {
	err := db.Where(query, args...).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func updateColumns(db *gorm.DB, model any, row any, columns ...any) error {
	res := db.Model(model).Select("updated_at", columns...).Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteRow(db *gorm.DB, model any, id uint) error {
	res := db.Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Client operations
func (s *DatabaseStore) CreateClient(ctx context.Context, client *models.Client) error {
	return s.db.WithContext(ctx).Create(client).Error
}

func (s *DatabaseStore) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := first(s.db.WithContext(ctx), &client, "cliente_id = ?", id); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *DatabaseStore) GetClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	var client models.Client
	if err := first(s.db.WithContext(ctx), &client, "telefono = ?", phone); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *DatabaseStore) ListClients(ctx context.Context) ([]*models.Client, error) {
	var clients []*models.Client
	err := s.db.WithContext(ctx).Order("cliente_id").Find(&clients).Error
	return clients, err
}

func (s *DatabaseStore) UpdateClient(ctx context.Context, client *models.Client) error {
	return updateColumns(s.db.WithContext(ctx), &models.Client{ID: client.ID}, client,
		"nombre", "apellido", "telefono")
}

func (s *DatabaseStore) DeleteClient(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &models.Client{}, id)
}

// Destination operations
func (s *DatabaseStore) CreateDestination(ctx context.Context, dest *models.Destination) error {
	return s.db.WithContext(ctx).Create(dest).Error
}

func (s *DatabaseStore) GetDestination(ctx context.Context, id uint) (*models.Destination, error) {
	var dest models.Destination
	if err := first(s.db.WithContext(ctx), &dest, "destino_id = ?", id); err != nil {
		return nil, err
	}
	return &dest, nil
}

func (s *DatabaseStore) GetDestinationByPostalCode(ctx context.Context, postalCode string) (*models.Destination, error) {
	var dest models.Destination
	if err := first(s.db.WithContext(ctx), &dest, "codigo_postal = ?", postalCode); err != nil {
		return nil, err
	}
	return &dest, nil
}

func (s *DatabaseStore) ListDestinations(ctx context.Context) ([]*models.Destination, error) {
	var dests []*models.Destination
	err := s.db.WithContext(ctx).Order("destino_id").Find(&dests).Error
	return dests, err
}

func (s *DatabaseStore) UpdateDestination(ctx context.Context, dest *models.Destination) error {
	return updateColumns(s.db.WithContext(ctx), &models.Destination{ID: dest.ID}, dest,
		"codigo_postal", "pais", "ciudad", "estado", "km", "precio_km")
}

func (s *DatabaseStore) DeleteDestination(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &models.Destination{}, id)
}

// Origin operations
func (s *DatabaseStore) CreateOrigin(ctx context.Context, origin *models.Origin) error {
	return s.db.WithContext(ctx).Create(origin).Error
}

func (s *DatabaseStore) GetOrigin(ctx context.Context, id uint) (*models.Origin, error) {
	var origin models.Origin
	if err := first(s.db.WithContext(ctx), &origin, "id = ?", id); err != nil {
		return nil, err
	}
	return &origin, nil
}

func (s *DatabaseStore) ListOrigins(ctx context.Context) ([]*models.Origin, error) {
	var origins []*models.Origin
	err := s.db.WithContext(ctx).Order("id").Find(&origins).Error
	return origins, err
}

func (s *DatabaseStore) UpdateOrigin(ctx context.Context, origin *models.Origin) error {
	return updateColumns(s.db.WithContext(ctx), &models.Origin{ID: origin.ID}, origin,
		"codigo_postal", "pais", "ciudad", "estado")
}

func (s *DatabaseStore) DeleteOrigin(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &models.Origin{}, id)
}

// Administrator operations
func (s *DatabaseStore) CreateAdministrator(ctx context.Context, admin *models.Administrator) error {
	return s.db.WithContext(ctx).Create(admin).Error
}

func (s *DatabaseStore) GetAdministrator(ctx context.Context, id uint) (*models.Administrator, error) {
	var admin models.Administrator
	if err := first(s.db.WithContext(ctx), &admin, "admin_id = ?", id); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *DatabaseStore) GetAdministratorByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	var admin models.Administrator
	if err := first(s.db.WithContext(ctx), &admin, "email = ?", email); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *DatabaseStore) ListAdministrators(ctx context.Context) ([]*models.Administrator, error) {
	var admins []*models.Administrator
	err := s.db.WithContext(ctx).Order("admin_id").Find(&admins).Error
	return admins, err
}

func (s *DatabaseStore) UpdateAdministrator(ctx context.Context, admin *models.Administrator) error {
	return updateColumns(s.db.WithContext(ctx), &models.Administrator{ID: admin.ID}, admin,
		"nombre", "apellido", "email", "contrasena")
}

func (s *DatabaseStore) DeleteAdministrator(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &models.Administrator{}, id)
}

// Verification code operations
func (s *DatabaseStore) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s *DatabaseStore) GetActiveVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	if err := first(s.db.WithContext(ctx), &vc, "codigo_verificacion = ? AND estado = ?", code, false); err != nil {
		return nil, err
	}
	return &vc, nil
}

func (s *DatabaseStore) VerificationCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("codigo_verificacion = ?", code).Count(&n).Error
	return n > 0, err
}

func (s *DatabaseStore) ConsumeVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	db := s.db.WithContext(ctx)
	vc, err := s.GetActiveVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}

	res := db.Model(&models.VerificationCode{}).
		Where("id = ? AND estado = ?", vc.ID, false).
		Update("estado", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost the race to another consumer
		return nil, ErrNotFound
	}
	vc.Consumed = true
	return vc, nil
}

// Quotation operations
func (s *DatabaseStore) CreateQuotation(ctx context.Context, q *models.Quotation) error {
	return s.db.WithContext(ctx).Create(q).Error
}

func (s *DatabaseStore) GetQuotation(ctx context.Context, id uint) (*models.Quotation, error) {
	var q models.Quotation
	if err := first(s.db.WithContext(ctx), &q, "cotizacion_id = ?", id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *DatabaseStore) ListQuotations(ctx context.Context) ([]*models.Quotation, error) {
	var quotations []*models.Quotation
	err := s.db.WithContext(ctx).Order("cotizacion_id").Find(&quotations).Error
	return quotations, err
}

func (s *DatabaseStore) UpdateQuotation(ctx context.Context, q *models.Quotation) error {
	return updateColumns(s.db.WithContext(ctx), &models.Quotation{ID: q.ID}, q,
		"cliente_id", "destino_id", "categoria", "porcentaje_categoria", "precio",
		"folio", "aprobada", "codigo_verificacion", "ine")
}

// DecideQuotation is a conditional update on aprobada so that concurrent
// decisions serialize on the row lock and only the first one applies.
func (s *DatabaseStore) DecideQuotation(ctx context.Context, id uint, status models.QuotationStatus) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Quotation{}).
		Where("cotizacion_id = ? AND (aprobada = ? OR aprobada = '' OR aprobada IS NULL)", id, models.StatusPending).
		Update("aprobada", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetQuotation(ctx, id); err != nil {
		return err
	}
	return models.ErrNotPending
}

func (s *DatabaseStore) DeleteQuotation(ctx context.Context, id uint) error {
	return deleteRow(s.db.WithContext(ctx), &models.Quotation{}, id)
}
