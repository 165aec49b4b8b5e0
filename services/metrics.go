package services

import (
	"errors"
	"nest-server/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nest_mutations_total",
			Help: "Create, edit and delete attempts by resource and outcome.",
		},
		[]string{"resource", "operation", "outcome"},
	)

	listFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nest_list_failures_total",
			Help: "List queries that failed and were served as empty results.",
		},
		[]string{"resource"},
	)
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrValidation):
		return "invalid"
	case errors.Is(err, core.ErrStorage):
		return "storage_failed"
	case errors.Is(err, core.ErrPersistence):
		return "persistence_failed"
	default:
		return "error"
	}
}

func recordMutation(resource, operation string, err error) {
	mutationsTotal.WithLabelValues(resource, operation, outcome(err)).Inc()
}
