package reconciliation

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes balance audits and outstanding reports.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers audit and outstanding endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/customers", h.auditAll(PartyCustomer))
		r.Get("/customers/{id}", h.auditOne(PartyCustomer))
		r.Get("/suppliers", h.auditAll(PartySupplier))
		r.Get("/suppliers/{id}", h.auditOne(PartySupplier))
	})
	r.Get("/receivables", h.receivables)
	r.Get("/payables", h.payables)
}

func (h *Handler) auditAll(kind PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.service.Audit(r.Context(), kind)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		if r.URL.Query().Get("drifted") == "true" {
			report.Rows = DriftedOnly(report.Rows)
		}
		if r.URL.Query().Get("format") == "xlsx" {
			w.Header().Set("Content-Type", xlsxContentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("audit-%s-%s.xlsx", kind, time.Now().Format("20060102"))))
			if err := WriteXLSX(w, report); err != nil {
				h.logger.Error("write audit xlsx", slog.Any("error", err))
			}
			return
		}
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) auditOne(kind PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var (
			row Row
			err error
		)
		if kind == PartySupplier {
			row, err = h.service.AuditSupplier(r.Context(), id)
		} else {
			row, err = h.service.AuditCustomer(r.Context(), id)
		}
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusOK, row)
	}
}

func (h *Handler) receivables(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Receivables(r.Context(), time.Now())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) payables(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Payables(r.Context(), time.Now())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
