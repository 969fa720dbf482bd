// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). Most codes mirror an
// errs.Kind one-to-one (see errs.Kind.String); the rest are transport-only.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_error",
//	  "error": "fullName is required"
//	}
package handlers

const (
	ErrCodeConfiguration    = "configuration_error"
	ErrCodeValidation       = "validation_error"
	ErrCodeParse            = "parse_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Transport-only:
	ErrCodeBadIdempotencyKey = "bad_idempotency_key"
)
