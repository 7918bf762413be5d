package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `pos_http_requests_total{code="418",method="GET",route="/test"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `pos_http_request_duration_seconds_bucket{route="/test"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestLedgerAndCashboxMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveLedgerOperation("create_sale", "ok", 20*time.Millisecond)
	metrics.ObserveLedgerOperation("create_sale", "insufficient_stock", time.Millisecond)
	metrics.CashboxEntryAppended(documents.CashboxTransaction{Type: documents.TransactionIncome, Amount: decimal.NewFromInt(250)})
	metrics.RecordDrift("customer", 2, decimal.RequireFromString("75.5"))

	body := scrape(t, metrics)
	for _, want := range []string{
		`pos_ledger_operations_total{operation="create_sale",outcome="ok"} 1`,
		`pos_ledger_operations_total{operation="create_sale",outcome="insufficient_stock"} 1`,
		`pos_cashbox_entries_total{type="INCOME"} 1`,
		`pos_cashbox_amount_total{type="INCOME"} 250`,
		`pos_reconciliation_drift_parties{party="customer"} 2`,
		`pos_reconciliation_drift_amount{party="customer"} 75.5`,
		`pos_reconciliation_runs_total{party="customer"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveLedgerOperation("x", "ok", time.Second)
	metrics.CashboxEntryAppended(documents.CashboxTransaction{})
	metrics.RecordDrift("supplier", 0, decimal.Zero)
	metrics.ObserveJob("t", "ok")

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
