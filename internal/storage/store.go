package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
var ErrNotFound = errors.New("record not found")

// Counts summarizes live rows per table for the health endpoint.
type Counts struct {
	Clients      int64 `json:"clientes"`
	Destinations int64 `json:"destinos"`
	Origins      int64 `json:"origenes"`
	Quotations   int64 `json:"cotizaciones"`
	Codes        int64 `json:"codigos"`
}

// Store defines the interface for storage operations. Every read excludes
// soft-deleted rows.
type Store interface {
	// Transaction runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (*Counts, error)

	// Client operations
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id uint) (*models.Client, error)
	GetClientByPhone(ctx context.Context, phone string) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id uint) error

	// Destination operations
	CreateDestination(ctx context.Context, dest *models.Destination) error
	GetDestination(ctx context.Context, id uint) (*models.Destination, error)
	GetDestinationByPostalCode(ctx context.Context, postalCode string) (*models.Destination, error)
	ListDestinations(ctx context.Context) ([]*models.Destination, error)
	UpdateDestination(ctx context.Context, dest *models.Destination) error
	DeleteDestination(ctx context.Context, id uint) error

	// Origin operations
	CreateOrigin(ctx context.Context, origin *models.Origin) error
	GetOrigin(ctx context.Context, id uint) (*models.Origin, error)
	ListOrigins(ctx context.Context) ([]*models.Origin, error)
	UpdateOrigin(ctx context.Context, origin *models.Origin) error
	DeleteOrigin(ctx context.Context, id uint) error

	// Administrator operations
	CreateAdministrator(ctx context.Context, admin *models.Administrator) error
	GetAdministrator(ctx context.Context, id uint) (*models.Administrator, error)
	GetAdministratorByEmail(ctx context.Context, email string) (*models.Administrator, error)
	ListAdministrators(ctx context.Context) ([]*models.Administrator, error)
	UpdateAdministrator(ctx context.Context, admin *models.Administrator) error
	DeleteAdministrator(ctx context.Context, id uint) error

	// Verification code operations
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	// GetActiveVerificationCode returns the oldest unconsumed row for code.
	GetActiveVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error)
	// VerificationCodeExists ignores the consumed flag.
	VerificationCodeExists(ctx context.Context, code string) (bool, error)
	// ConsumeVerificationCode flips one unconsumed row to consumed with a
	// compare-and-set; a concurrent consumer of the same row gets ErrNotFound.
	ConsumeVerificationCode(ctx context.Context, code string) (*models.VerificationCode, error)

	// Quotation operations
	CreateQuotation(ctx context.Context, q *models.Quotation) error
	GetQuotation(ctx context.Context, id uint) (*models.Quotation, error)
	ListQuotations(ctx context.Context) ([]*models.Quotation, error)
	UpdateQuotation(ctx context.Context, q *models.Quotation) error
	// DecideQuotation moves a pending quotation to status. It returns
	// models.ErrNotPending when the row was decided first by someone else.
	DecideQuotation(ctx context.Context, id uint, status models.QuotationStatus) error
	DeleteQuotation(ctx context.Context, id uint) error
}
