// Package services defines the business logic for survey submission,
// statistics and test-data generation. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Step-level validation and store failures are reported
// with survey.ValidationError and survey.PersistenceError.
package services

import (
	"errors"

	"github.com/tbourn/go-survey-backend/internal/stats"
)

var (
	// ErrAlreadySubmitted is returned when a device that already completed
	// a genuine submission tries again.
	ErrAlreadySubmitted = errors.New("survey already submitted from this device")

	// ErrSuggestionsTooLong is the validation reason for oversize comments.
	ErrSuggestionsTooLong = errors.New("suggestions too long")

	// ErrTestModeDisabled is returned by test-only operations outside test mode.
	ErrTestModeDisabled = errors.New("test mode is disabled")

	// ErrInvalidCount is returned for seed batch sizes outside [1, MaxSeedCount].
	ErrInvalidCount = errors.New("invalid record count")

	// ErrNoData aliases stats.ErrNoData for callers that only import services.
	ErrNoData = stats.ErrNoData
)
