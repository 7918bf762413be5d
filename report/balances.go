package report

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// BalancesSource supplies the receivables report.
type BalancesSource interface {
	Receivables(ctx context.Context, asOf time.Time) (reconciliation.BalancesReport, error)
}

var balancesTemplate = template.Must(template.New("balances").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Noto Sans Arabic", "Noto Sans", sans-serif; font-size: 12px; margin: 24px; }
h1 { font-size: 18px; margin-bottom: 4px; }
.meta { color: #555; margin-bottom: 16px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 6px 8px; }
th { background: #f0f0f0; }
td.num { text-align: end; font-variant-numeric: tabular-nums; }
tfoot td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.Generated}}</div>
<table>
<thead><tr><th>#</th><th>{{.Labels.Customer}}</th><th>{{.Labels.Phone}}</th><th>{{.Labels.Outstanding}}</th><th>{{.Labels.Balance}}</th></tr></thead>
<tbody>
{{range $i, $row := .Rows}}<tr><td>{{inc $i}}</td><td>{{$row.Name}}</td><td>{{$row.Phone}}</td><td class="num">{{$row.Open}}</td><td class="num">{{$row.Balance}}</td></tr>
{{end}}</tbody>
<tfoot><tr><td colspan="4">{{.Labels.Total}}</td><td class="num">{{.Total}}</td></tr></tfoot>
</table>
</body>
</html>
`))

type balancesRow struct {
	Name    string
	Phone   string
	Open    int
	Balance string
}

type balancesView struct {
	Lang      string
	Dir       string
	Title     string
	Generated string
	Labels    struct{ Customer, Phone, Outstanding, Balance, Total string }
	Rows      []balancesRow
	Total     string
}

// RemainingBalancesHTML renders customers that still owe money.
func RemainingBalancesHTML(report reconciliation.BalancesReport, loc *shared.Localizer) (string, error) {
	view := balancesView{
		Lang:      loc.Language().String(),
		Dir:       "ltr",
		Title:     loc.T(shared.MsgReportBalancesTitle),
		Generated: loc.T(shared.MsgReportGeneratedAt, report.AsOf.Format("2006-01-02 15:04")),
	}
	if loc.Language() == language.Arabic {
		view.Dir = "rtl"
	}
	view.Labels.Customer = loc.T(shared.MsgReportCustomer)
	view.Labels.Phone = loc.T(shared.MsgReportPhone)
	view.Labels.Outstanding = loc.T(shared.MsgReportOutstanding)
	view.Labels.Balance = loc.T(shared.MsgReportBalance)
	view.Labels.Total = loc.T(shared.MsgReportTotal)

	total := decimal.Zero
	for _, p := range report.Parties {
		if !p.Balance.IsPositive() {
			continue
		}
		view.Rows = append(view.Rows, balancesRow{
			Name:    p.Name,
			Phone:   p.Phone,
			Open:    len(p.Invoices),
			Balance: shared.FormatMoney(p.Balance),
		})
		total = total.Add(p.Balance)
	}
	view.Total = shared.FormatMoney(total)

	var buf bytes.Buffer
	if err := balancesTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Handler manages report endpoints.
type Handler struct {
	renderer Renderer
	source   BalancesSource
	language string
	logger   *slog.Logger
}

// NewHandler creates a report handler. lang is the fallback when the
// request negotiates none.
func NewHandler(renderer Renderer, source BalancesSource, lang string, logger *slog.Logger) *Handler {
	return &Handler{renderer: renderer, source: source, language: lang, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/remaining-balances.html", h.remainingBalancesHTML)
	r.Get("/remaining-balances.pdf", h.remainingBalancesPDF)
	if c, ok := h.renderer.(*Client); ok {
		r.Get("/ping", h.ping(c))
	}
}

func (h *Handler) render(r *http.Request) (string, error) {
	report, err := h.source.Receivables(r.Context(), time.Now())
	if err != nil {
		return "", err
	}
	loc := shared.NewLocalizer(r.Header.Get("Accept-Language"), h.language)
	return RemainingBalancesHTML(report, loc)
}

func (h *Handler) remainingBalancesHTML(w http.ResponseWriter, r *http.Request) {
	html, err := h.render(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handler) remainingBalancesPDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Render Disabled", "no PDF renderer is configured")
		return
	}
	html, err := h.render(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	pdf, err := h.renderer.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render remaining balances pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "the PDF renderer is unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=remaining-balances.pdf")
	_, _ = w.Write(pdf)
}

func (h *Handler) ping(c *Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Ping(r.Context()); err != nil {
			h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Renderer Unavailable", err.Error())
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
