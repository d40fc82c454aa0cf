package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// sagaOutcomes counts terminal results of engine operations by op
// (create/update/cancel) and outcome (ok or an error class).
var sagaOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_saga_outcomes_total",
		Help: "Terminal outcomes of booking create/update/cancel.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(sagaOutcomes)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrCalendarWrite):
		return "calendar_write_failed"
	case errors.Is(err, ErrCalendarUnavailable):
		return "calendar_unavailable"
	case errors.Is(err, ErrStoreWrite):
		return "store_write_failed"
	default:
		return "error"
	}
}

func observeOutcome(op string, err error) {
	sagaOutcomes.WithLabelValues(op, outcome(err)).Inc()
}
