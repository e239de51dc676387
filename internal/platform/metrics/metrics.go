package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abctrack_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abctrack_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	casesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abctrack_cases_created_total",
		Help: "Cases opened by a catching action.",
	})

	stageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abctrack_stage_transitions_total",
		Help: "Case stage transitions by resulting state.",
	}, []string{"state"})

	ledgerEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abctrack_ledger_entries_total",
		Help: "Inventory ledger entries by kind.",
	}, []string{"kind"})

	bulkUploadRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abctrack_bulk_upload_rows_total",
		Help: "Bulk upload rows by sheet kind and result.",
	}, []string{"kind", "result"})
)

// CaseCreated counts a new case opened by a catching action.
func CaseCreated() {
	casesCreatedTotal.Inc()
}

// StageTransition counts a lifecycle transition into the given state.
func StageTransition(state string) {
	stageTransitionsTotal.WithLabelValues(state).Inc()
}

// LedgerEntry counts an inventory ledger append of the given kind.
func LedgerEntry(kind string) {
	ledgerEntriesTotal.WithLabelValues(kind).Inc()
}

// BulkUploadRow counts one processed bulk upload row; result is "success" or
// "failed".
func BulkUploadRow(kind, result string) {
	bulkUploadRowsTotal.WithLabelValues(kind, result).Inc()
}

// Middleware returns echo middleware that records request counts and
// latencies. The route template (not the raw path) is used as the label to
// keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler serves the Prometheus registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
