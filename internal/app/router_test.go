package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/odyssey-pos/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &Config{
		AppEnv:             "test",
		StoreDriver:        StoreDriverMemory,
		LedgerCancelPolicy: "symmetric",
		CashboxWindow:      50,
		CORSOrigins:        []string{"http://pos.test"},
		RateLimitPerMin:    1000,
		DefaultLocale:      "en",
	}
	require.NoError(t, cfg.Validate())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := Build(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return NewRouter(RouterParams{Container: c})
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "cashier-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","store":"memory"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = call(t, h, http.MethodGet, "/jobs/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pos_")
}

func TestRouterSaleFlowKeepsLedgersConsistent(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/products", `{"name":"Tea","price":"50","stock":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := decodeID(t, rec)

	rec = call(t, h, http.MethodPost, "/api/customers", `{"name":"Ali","dueDays":30}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customerID := decodeID(t, rec)

	sale := `{"customerId":"` + customerID + `","items":[{"productId":"` + productID + `","quantity":2,"price":"50"}],"totalAmount":"100","paidAmount":"40","paymentMethod":"CASH"}`
	rec = call(t, h, http.MethodPost, "/api/sales", sale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/products/"+productID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var product struct {
		Stock int `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, 8, product.Stock)

	rec = call(t, h, http.MethodGet, "/api/inventory/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[],"count":0}`, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/audit/customers/"+customerID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var row struct {
		Stored string `json:"stored"`
		Diff   string `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, "60", row.Stored)
	assert.Equal(t, "0", row.Diff)

	rec = call(t, h, http.MethodGet, "/api/reports/remaining-balances.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ali")

	rec = call(t, h, http.MethodGet, "/api/reports/remaining-balances.pdf", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterRejectsUnknownCustomer(t *testing.T) {
	h := newTestRouter(t)
	rec := call(t, h, http.MethodGet, "/api/audit/customers/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
