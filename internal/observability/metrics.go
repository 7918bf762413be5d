// Package observability owns the Prometheus registry shared by the HTTP
// layer, the ledgers and the background jobs.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ledgerOps       *prometheus.CounterVec
	ledgerDuration  *prometheus.HistogramVec
	cashboxEntries  *prometheus.CounterVec
	cashboxAmount   *prometheus.CounterVec
	driftParties    *prometheus.GaugeVec
	driftAmount     *prometheus.GaugeVec
	auditRuns       *prometheus.CounterVec
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics initialises the registry and every metric.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ledgerOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_ledger_operations_total",
		Help: "Document lifecycle units of work by operation and outcome.",
	}, []string{"operation", "outcome"})
	ledgerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_ledger_operation_duration_seconds",
		Help:    "Latency of document lifecycle units of work, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	cashboxEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cashbox_entries_total",
		Help: "Committed cashbox transactions by direction.",
	}, []string{"type"})
	cashboxAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cashbox_amount_total",
		Help: "Committed cashbox amounts by direction.",
	}, []string{"type"})
	driftParties := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pos_reconciliation_drift_parties",
		Help: "Parties whose stored balance differs from the recomputed one at the last audit.",
	}, []string{"party"})
	driftAmount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pos_reconciliation_drift_amount",
		Help: "Sum of absolute balance drift at the last audit.",
	}, []string{"party"})
	auditRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_reconciliation_runs_total",
		Help: "Completed reconciliation audits by party kind.",
	}, []string{"party"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_jobs_total",
		Help: "Background jobs by task type and status.",
	}, []string{"task", "status"})
	registry.MustRegister(requests, duration, ledgerOps, ledgerDuration, cashboxEntries, cashboxAmount, driftParties, driftAmount, auditRuns, jobs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ledgerOps:       ledgerOps,
		ledgerDuration:  ledgerDuration,
		cashboxEntries:  cashboxEntries,
		cashboxAmount:   cashboxAmount,
		driftParties:    driftParties,
		driftAmount:     driftAmount,
		auditRuns:       auditRuns,
		jobsTotal:       jobs,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per matched route. It must
// wrap the router so the chi route pattern is known once the request returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := matchedRoute(r)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(began).Seconds())
	})
}

// ObserveLedgerOperation records one lifecycle unit of work.
func (m *Metrics) ObserveLedgerOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, outcome).Inc()
	m.ledgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CashboxEntryAppended counts a committed cashbox transaction.
func (m *Metrics) CashboxEntryAppended(entry documents.CashboxTransaction) {
	if m == nil {
		return
	}
	m.cashboxEntries.WithLabelValues(string(entry.Type)).Inc()
	m.cashboxAmount.WithLabelValues(string(entry.Type)).Add(entry.Amount.InexactFloat64())
}

// RecordDrift publishes the outcome of an audit over one party kind.
func (m *Metrics) RecordDrift(party string, drifted int, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.auditRuns.WithLabelValues(party).Inc()
	m.driftParties.WithLabelValues(party).Set(float64(drifted))
	m.driftAmount.WithLabelValues(party).Set(amount.InexactFloat64())
}

// ObserveJob counts a processed background task.
func (m *Metrics) ObserveJob(task, status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// matchedRoute keeps label cardinality bounded: unmatched paths share one label.
func matchedRoute(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return "unmatched"
	}
	return rctx.RoutePattern()
}
