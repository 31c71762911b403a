package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MovementsRecorded counts appended ledger entries by movement kind.
	MovementsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispensaryhub_inventory_movements_total",
		Help: "Inventory ledger entries appended, by movement kind.",
	}, []string{"kind"})

	// OrdersFinalized counts successful order finalizations.
	OrdersFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispensaryhub_orders_finalized_total",
		Help: "Orders transitioned to COMPLETED.",
	})

	// AuditEventsRecorded counts persisted audit events.
	AuditEventsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispensaryhub_audit_events_total",
		Help: "Audit events written for mutating requests.",
	})

	// AuditFailures counts mutating requests whose audit write failed.
	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispensaryhub_audit_failures_total",
		Help: "Audit writes that failed after the domain operation completed.",
	})
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
