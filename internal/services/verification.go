package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
	"github.com/fletes-mx/cotizaciones-backend/internal/utils"
)

// ErrCodeNotFound means the code does not exist or was already consumed.
var ErrCodeNotFound = errors.Wrap(ErrNotFound, "verification code")

// generateAttempts bounds retries when a fresh code collides with an
// unconsumed one.
const generateAttempts = 5

// Notifier delivers verification codes and decision notices.
type Notifier interface {
	SendCode(ctx context.Context, phone, code string) error
	SendDecision(ctx context.Context, n DecisionNotice) error
}

// VerificationService issues and redeems the single-use codes that gate
// quotation actions. Issuing a code never invalidates older ones.
type VerificationService struct {
	store    storage.Store
	notifier Notifier
	metrics  *Metrics
	generate func() (string, error)
	log      zerolog.Logger
}

func NewVerificationService(store storage.Store, notifier Notifier, metrics *Metrics) *VerificationService {
	return &VerificationService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		generate: utils.GenerateVerificationCode,
		log:      log.With().Str("component", "verification").Logger(),
	}
}

// WithStore returns a copy of the service bound to tx, so lookups and
// consumption join the caller's transaction.
func (s *VerificationService) WithStore(tx storage.Store) *VerificationService {
	c := *s
	c.store = tx
	return &c
}

// Issue creates a code for clientID and texts it to the client's phone. The
// code row is rolled back when the SMS cannot be sent.
func (s *VerificationService) Issue(ctx context.Context, clientID uint) (string, error) {
	var code string
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		client, err := tx.GetClient(ctx, clientID)
		if err != nil {
			return notFound(err, ErrClientNotFound, "get client")
		}

		code, err = s.newCode(ctx, tx)
		if err != nil {
			return err
		}

		vc := &models.VerificationCode{ClientID: client.ID, Code: code}
		if err := tx.CreateVerificationCode(ctx, vc); err != nil {
			return errors.Wrap(err, "save verification code")
		}

		return s.notifier.SendCode(ctx, client.Phone, code)
	})
	if err != nil {
		return "", err
	}

	s.metrics.CodesIssued.Inc()
	s.log.Info().Uint("cliente_id", clientID).Msg("verification code issued")
	return code, nil
}

func (s *VerificationService) newCode(ctx context.Context, tx storage.Store) (string, error) {
	for i := 0; i < generateAttempts; i++ {
		code, err := s.generate()
		if err != nil {
			return "", errors.Wrap(err, "generate verification code")
		}
		_, err = tx.GetActiveVerificationCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "check verification code")
		}
	}
	return "", errors.New("could not generate a unique verification code")
}

// Lookup resolves an unconsumed code to its client without consuming it.
func (s *VerificationService) Lookup(ctx context.Context, code string) (*models.Client, error) {
	vc, err := s.store.GetActiveVerificationCode(ctx, models.NormalizeCode(code))
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "get verification code")
	}
	client, err := s.store.GetClient(ctx, vc.ClientID)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound, "get client")
	}
	return client, nil
}

// ValidateAndConsume marks one unconsumed row for code as consumed and
// returns it. A code can be consumed once; later calls get ErrCodeNotFound.
func (s *VerificationService) ValidateAndConsume(ctx context.Context, code string) (*models.VerificationCode, error) {
	vc, err := s.store.ConsumeVerificationCode(ctx, models.NormalizeCode(code))
	if err != nil {
		return nil, notFound(err, ErrCodeNotFound, "consume verification code")
	}
	return vc, nil
}

// Exists reports whether code was ever issued, consumed or not.
func (s *VerificationService) Exists(ctx context.Context, code string) (bool, error) {
	ok, err := s.store.VerificationCodeExists(ctx, models.NormalizeCode(code))
	if err != nil {
		return false, errors.Wrap(err, "check verification code")
	}
	return ok, nil
}
