// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the ErrorResponse envelope, fail() and its exported twin, failErr() which
// translates service errors, and the ok()/noContent() success writers.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "slot_conflict",
//	  "message": "slot unavailable: 2025-06-01 14:00 is taken"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/j01232026-hub/pretty/internal/http/middleware"
	"github.com/j01232026-hub/pretty/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"slot_conflict"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"slot unavailable"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// statusFor maps a service error to its HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, ErrCodeSlotConflict
	case errors.Is(err, services.ErrBookingNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrCalendarWrite):
		return http.StatusBadGateway, ErrCodeCalendarWrite
	case errors.Is(err, services.ErrCalendarUnavailable):
		return http.StatusServiceUnavailable, ErrCodeCalendarUnavailable
	case errors.Is(err, services.ErrStoreWrite):
		return http.StatusServiceUnavailable, ErrCodeStoreWrite
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// failErr writes the envelope for a service error. Retryable failures carry
// Retry-After so clients back off before repeating the same request.
func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	if services.IsRetryable(err) {
		c.Header("Retry-After", "1")
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
		middleware.LoggerFrom(c).Error().Err(err).Msg("unmapped service error")
	}
	fail(c, status, code, msg)
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
