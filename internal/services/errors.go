package services

import (
	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrClientNotFound      = errors.Wrap(ErrNotFound, "client")
	ErrDestinationNotFound = errors.Wrap(ErrNotFound, "destination")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrMissingAttachment   = errors.New("identification image is required")
	ErrInvalidState        = errors.New("quotation already decided")
	ErrExternalService     = errors.New("external service failed")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
)

// notFound translates storage.ErrNotFound into target and wraps anything
// else with msg.
func notFound(err, target error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return target
	}
	return errors.Wrap(err, msg)
}

func external(err error, msg string) error {
	return errors.Wrapf(ErrExternalService, "%s: %v", msg, err)
}
