// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics; the survey
// specific ones (already_submitted, validation_failed, ...) carry meaning
// the status alone cannot.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "message": "step 4: score out of range",
//	  "step": 3
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidation       = "validation_failed"
	ErrCodeAlreadySubmitted = "already_submitted"
	ErrCodeSubmitFailed     = "submit_failed"
	ErrCodeLoadFailed       = "load_failed"
	ErrCodeSeedFailed       = "seed_failed"
	ErrCodeQRFailed         = "qr_failed"
)
