// Package services defines the business logic for QR-tag profiles.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers with
// errors.Is.
//
// All values are *errs.Error; translation into HTTP status codes happens at
// the handler layer through errs.Kind.
package services

import "github.com/tbourn/qrtag-backend/internal/errs"

var (
	// ErrProfileNotFound indicates that no profile carries the requested
	// QR-code ID.
	ErrProfileNotFound = errs.NotFound("profile not found")

	// ErrQRCodeRequired is returned when a lookup is attempted without a
	// QR-code ID.
	ErrQRCodeRequired = errs.Validation("qrCodeId is required")

	// ErrQRCodeSpaceExhausted is returned when no free QR-code ID was found
	// within the configured number of attempts.
	ErrQRCodeSpaceExhausted = errs.New(errs.KindInternal, "could not allocate a unique qrCodeId")
)
