// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, the booking
// codes name the engine outcome so a client can tell a taken slot from a
// calendar outage.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "slot_conflict",
//	  "message": "slot unavailable"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Booking engine outcomes:
	ErrCodeSlotConflict        = "slot_conflict"
	ErrCodeCalendarWrite       = "calendar_write_failed"
	ErrCodeCalendarUnavailable = "calendar_unavailable"
	ErrCodeStoreWrite          = "store_write_failed"

	// Webhook:
	ErrCodeBadSignature = "bad_signature"
)
