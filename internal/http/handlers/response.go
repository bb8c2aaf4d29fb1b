// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint: the
// ErrorResponse envelope, fail/Fail, ok, and failFromError, which maps the
// service error taxonomy onto HTTP statuses:
//
//	*survey.ValidationError         400 validation_failed (with step)
//	services.ErrAlreadySubmitted    409 already_submitted
//	services.ErrTestModeDisabled    403 forbidden
//	*survey.PersistenceError        503 unavailable + Retry-After on timeout,
//	                                otherwise 500 with the caller's code
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/survey"
)

// retryAfterSeconds is sent with 503 responses caused by store timeouts.
const retryAfterSeconds = 5

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"step 4: score out of range"`
	// Zero-based questionnaire step, set for validation failures only
	Step *int `json:"step,omitempty" example:"3"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failStep(c, status, code, msg, nil)
}

func failStep(c *gin.Context, status int, code, msg string, step *int) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Step:      step,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failFromError translates a service error. fallbackCode is used for
// non-timeout persistence failures and unknown errors.
func failFromError(c *gin.Context, err error, fallbackCode string) {
	var ve *survey.ValidationError
	var pe *survey.PersistenceError
	switch {
	case errors.As(err, &ve):
		step := ve.Step
		failStep(c, http.StatusBadRequest, ErrCodeValidation, ve.Error(), &step)
	case errors.Is(err, services.ErrAlreadySubmitted), errors.Is(err, survey.ErrBlocked):
		fail(c, http.StatusConflict, ErrCodeAlreadySubmitted, services.ErrAlreadySubmitted.Error())
	case errors.Is(err, services.ErrTestModeDisabled):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidCount):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.As(err, &pe) && pe.Timeout():
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "storage timed out, please retry")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
