package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
	"github.com/fletes-mx/cotizaciones-backend/internal/utils"
)

// CreateQuotationInput is what a client submits to open a quotation.
type CreateQuotationInput struct {
	Code          string
	DestinationID uint
	Category      string
	IDImage       io.Reader
}

// UpdateQuotationInput replaces the mutable fields of a quotation. The
// destination is resolved by DestinationID when set, else by PostalCode.
type UpdateQuotationInput struct {
	Code          string
	DestinationID uint
	PostalCode    string
	Category      string
	IDImage       io.Reader
}

// QuotationService drives a quotation from creation to its accept or
// reject decision.
type QuotationService struct {
	store       storage.Store
	codes       *VerificationService
	attachments AttachmentStore
	notifier    Notifier
	metrics     *Metrics
	folio       func() (string, error)
	log         zerolog.Logger
}

func NewQuotationService(store storage.Store, codes *VerificationService, attachments AttachmentStore, notifier Notifier, metrics *Metrics, folioFormat string) *QuotationService {
	folio := utils.GenerateFolio
	if folioFormat == config.FolioToken {
		folio = func() (string, error) { return utils.GenerateFolioToken(), nil }
	}
	return &QuotationService{
		store:       store,
		codes:       codes,
		attachments: attachments,
		notifier:    notifier,
		metrics:     metrics,
		folio:       folio,
		log:         log.With().Str("component", "quotation").Logger(),
	}
}

func (s *QuotationService) List(ctx context.Context) ([]*models.Quotation, error) {
	quotations, err := s.store.ListQuotations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list quotations")
	}
	return quotations, nil
}

func (s *QuotationService) Get(ctx context.Context, id uint) (*models.Quotation, error) {
	q, err := s.store.GetQuotation(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get quotation")
	}
	return q, nil
}

// Create prices and stores a new pending quotation. The code is looked up,
// not consumed; it is spent when the client decides.
func (s *QuotationService) Create(ctx context.Context, in CreateQuotationInput) (*models.Quotation, error) {
	code := models.NormalizeCode(in.Code)
	var (
		q     *models.Quotation
		saved string
	)

	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		client, err := s.codes.WithStore(tx).Lookup(ctx, code)
		if err != nil {
			return err
		}
		dest, err := tx.GetDestination(ctx, in.DestinationID)
		if err != nil {
			return notFound(err, ErrDestinationNotFound, "get destination")
		}
		quote, err := ComputePrice(dest.Km, dest.PricePerKm, in.Category)
		if err != nil {
			return err
		}
		if in.IDImage == nil {
			return ErrMissingAttachment
		}
		folio, err := s.folio()
		if err != nil {
			return errors.Wrap(err, "generate folio")
		}

		saved, err = s.attachments.Save(ctx, imageKey(code, folio), in.IDImage)
		if err != nil {
			return errors.Wrap(err, "save identification image")
		}

		q = &models.Quotation{
			ClientID:           client.ID,
			DestinationID:      dest.ID,
			Category:           quote.Category,
			CategoryPercentage: quote.Percentage,
			Price:              quote.Price,
			Folio:              folio,
			Status:             models.StatusPending,
			VerificationCode:   code,
			IDImage:            saved,
		}
		return errors.Wrap(tx.CreateQuotation(ctx, q), "save quotation")
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, err
	}

	s.metrics.QuotationsCreated.WithLabelValues(string(q.Category)).Inc()
	s.log.Info().Uint("cotizacion_id", q.ID).Str("folio", q.Folio).Float64("precio", q.Price).Msg("quotation created")
	return q, nil
}

// Update re-resolves the client and destination, re-prices and stores a new
// identification image.
func (s *QuotationService) Update(ctx context.Context, id uint, in UpdateQuotationInput) (*models.Quotation, error) {
	code := models.NormalizeCode(in.Code)
	var (
		q        *models.Quotation
		saved    string
		previous string
	)

	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		q, err = tx.GetQuotation(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "get quotation")
		}
		client, err := s.codes.WithStore(tx).Lookup(ctx, code)
		if err != nil {
			return err
		}
		dest, err := s.resolveDestination(ctx, tx, in)
		if err != nil {
			return err
		}
		quote, err := ComputePrice(dest.Km, dest.PricePerKm, in.Category)
		if err != nil {
			return err
		}
		if in.IDImage == nil {
			return ErrMissingAttachment
		}

		saved, err = s.attachments.Save(ctx, imageKey(code, q.Folio), in.IDImage)
		if err != nil {
			return errors.Wrap(err, "save identification image")
		}

		previous = q.IDImage
		q.ClientID = client.ID
		q.DestinationID = dest.ID
		q.Category = quote.Category
		q.CategoryPercentage = quote.Percentage
		q.Price = quote.Price
		q.VerificationCode = code
		q.IDImage = saved
		return notFound(tx.UpdateQuotation(ctx, q), ErrNotFound, "update quotation")
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, err
	}

	s.discard(ctx, previous)
	return q, nil
}

// imageKey names a stored identification image. Several quotations may be
// opened with one code, so every save gets its own file and removing one
// quotation's image never touches another's.
func imageKey(code, folio string) string {
	return code + "-" + folio + "-" + uuid.NewString()[:8]
}

func (s *QuotationService) resolveDestination(ctx context.Context, tx storage.Store, in UpdateQuotationInput) (*models.Destination, error) {
	var (
		dest *models.Destination
		err  error
	)
	switch {
	case in.DestinationID != 0:
		dest, err = tx.GetDestination(ctx, in.DestinationID)
	case in.PostalCode != "":
		dest, err = tx.GetDestinationByPostalCode(ctx, in.PostalCode)
	default:
		return nil, errors.Wrap(ErrInvalidInput, "destino_id or codigo_postal is required")
	}
	if err != nil {
		return nil, notFound(err, ErrDestinationNotFound, "get destination")
	}
	return dest, nil
}

// Decide applies the client's accept or reject decision. The quotation must
// be pending and code must be an unconsumed code of the quotation's client;
// the code is consumed in the same transaction. The decision email is sent
// after commit and its failure does not undo the decision.
func (s *QuotationService) Decide(ctx context.Context, id uint, code string, decision models.Decision) (*models.Quotation, error) {
	var notice DecisionNotice

	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound, "get quotation")
		}
		client, err := tx.GetClient(ctx, q.ClientID)
		if err != nil {
			return notFound(err, ErrClientNotFound, "get client")
		}
		dest, err := tx.GetDestination(ctx, q.DestinationID)
		if err != nil {
			return notFound(err, ErrDestinationNotFound, "get destination")
		}

		if !q.IsPending() {
			return errors.Wrapf(ErrInvalidState, "quotation %d is %s", q.ID, q.Status)
		}

		vc, err := s.codes.WithStore(tx).ValidateAndConsume(ctx, code)
		if errors.Is(err, ErrCodeNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if vc.ClientID != q.ClientID {
			return errors.Wrap(ErrInvalidCode, "code belongs to another client")
		}

		if err := q.Decide(decision); err != nil {
			return errors.Wrapf(ErrInvalidState, "quotation %d is %s", q.ID, q.Status)
		}
		err = tx.DecideQuotation(ctx, q.ID, q.Status)
		if errors.Is(err, models.ErrNotPending) {
			return errors.Wrapf(ErrInvalidState, "quotation %d was decided concurrently", q.ID)
		}
		if err != nil {
			return notFound(err, ErrNotFound, "decide quotation")
		}

		notice = DecisionNotice{Quotation: q, Client: client, Destination: dest}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.QuotationDecisions.WithLabelValues(string(notice.Quotation.Status)).Inc()
	s.log.Info().Uint("cotizacion_id", id).Str("estado", string(notice.Quotation.Status)).Msg("quotation decided")

	if err := s.notifier.SendDecision(ctx, notice); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("email").Inc()
		s.log.Error().Err(err).Uint("cotizacion_id", id).Msg("decision email not sent")
	}
	return notice.Quotation, nil
}

// Delete soft-deletes a quotation. code must have been issued at some point;
// it is not consumed.
func (s *QuotationService) Delete(ctx context.Context, id uint, code string) error {
	return s.store.Transaction(ctx, func(tx storage.Store) error {
		ok, err := s.codes.WithStore(tx).Exists(ctx, code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCodeNotFound
		}
		return notFound(tx.DeleteQuotation(ctx, id), ErrNotFound, "delete quotation")
	})
}

func (s *QuotationService) discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.attachments.Remove(ctx, path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove attachment")
	}
}
