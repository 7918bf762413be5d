package report

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type staticSource struct {
	report reconciliation.BalancesReport
}

func (s staticSource) Receivables(_ context.Context, asOf time.Time) (reconciliation.BalancesReport, error) {
	r := s.report
	r.AsOf = asOf
	return r, nil
}

func sampleReport() reconciliation.BalancesReport {
	return reconciliation.BalancesReport{
		Kind: reconciliation.PartyCustomer,
		AsOf: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Parties: []reconciliation.PartyBalance{
			{ID: "c1", Name: "Ali <Trading>", Phone: "0100", Balance: decimal.RequireFromString("150"), Invoices: make([]reconciliation.OpenInvoice, 2)},
			{ID: "c2", Name: "Credit Only", Balance: decimal.RequireFromString("-20")},
			{ID: "c3", Name: "Sara", Balance: decimal.RequireFromString("49.5")},
		},
	}
}

func TestRemainingBalancesHTMLEnglish(t *testing.T) {
	html, err := RemainingBalancesHTML(sampleReport(), shared.NewLocalizer("en", "ar"))
	require.NoError(t, err)

	assert.Contains(t, html, `dir="ltr"`)
	assert.Contains(t, html, "Customer remaining balances")
	assert.Contains(t, html, "Generated at: 2024-05-01 10:30")
	assert.Contains(t, html, "Ali &lt;Trading&gt;")
	assert.Contains(t, html, "150.00")
	assert.Contains(t, html, "49.50")
	assert.Contains(t, html, "199.50")
	assert.NotContains(t, html, "Credit Only")
}

func TestRemainingBalancesHTMLArabic(t *testing.T) {
	html, err := RemainingBalancesHTML(sampleReport(), shared.NewLocalizer("", "ar"))
	require.NoError(t, err)
	assert.Contains(t, html, `dir="rtl"`)
	assert.Contains(t, html, "الأرصدة المتبقية على العملاء")
}

func TestClientRenderHTMLPostsMultipartForm(t *testing.T) {
	var gotHTML string
	fields := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			raw, _ := io.ReadAll(part)
			if part.FormName() == "files" {
				assert.Equal(t, "index.html", part.FileName())
				gotHTML = string(raw)
				continue
			}
			fields[part.FormName()] = string(raw)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/", time.Second).RenderHTML(context.Background(), "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "<p>hi</p>", gotHTML)
	assert.Equal(t, "8.27", fields["paperWidth"])
	assert.Equal(t, "false", fields["landscape"])

	_, err = NewClient(srv.URL, time.Second).WithPage(Page{Width: 11.7, Height: 8.27, Landscape: true}).RenderHTML(context.Background(), "<p/>")
	require.NoError(t, err)
	assert.Equal(t, "true", fields["landscape"])
	assert.Equal(t, "0", fields["marginTop"])
}

func TestClientRenderHTMLReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).RenderHTML(context.Background(), "<p/>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "chromium crashed")
}

type failingRenderer struct{}

func (failingRenderer) RenderHTML(context.Context, string) ([]byte, error) {
	return nil, io.ErrUnexpectedEOF
}

func TestHandlerRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(failingRenderer{}, staticSource{report: sampleReport()}, "en", logger).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/remaining-balances.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Sara")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/remaining-balances.pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
