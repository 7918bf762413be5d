package lifecycle

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// IdempotencyHeader carries the client-supplied deduplication key.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes document lifecycle endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers sales, purchases, payments and expenses.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) { h.mountDocuments(r, documents.KindSale) })
	r.Route("/purchases", func(r chi.Router) { h.mountDocuments(r, documents.KindPurchase) })
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
		r.Post("/", h.recordPayment)
	})
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.createExpense)
		r.Get("/{id}", h.getExpense)
		r.Put("/{id}", h.updateExpense)
		r.Delete("/{id}", h.deleteExpense)
	})
}

func (h *Handler) mountDocuments(r chi.Router, kind documents.Kind) {
	r.Get("/", h.listDocuments(kind))
	r.Post("/", h.createDocument(kind))
	r.Get("/{id}", h.getDocument(kind))
	r.Patch("/{id}/status", h.updateStatus(kind))
	r.Post("/{id}/cancel", h.cancelDocument(kind))
	r.Delete("/{id}", h.deleteDocument(kind))
}

type saleRequest struct {
	CustomerID *string `json:"customerId"`
	CreateInvoiceInput
}

type purchaseRequest struct {
	SupplierID *string `json:"supplierId"`
	CreateInvoiceInput
}

type statusRequest struct {
	Status string `json:"status"`
}

type listResponse struct {
	Data   []documents.Invoice `json:"data"`
	Totals documentTotals      `json:"totals"`
}

func (h *Handler) createDocument(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			in  CreateInvoiceInput
			err error
		)
		if kind == documents.KindSale {
			var req saleRequest
			err = httpx.DecodeJSON(r, &req)
			in = req.CreateInvoiceInput
			in.PartyID = req.CustomerID
		} else {
			var req purchaseRequest
			err = httpx.DecodeJSON(r, &req)
			in = req.CreateInvoiceInput
			in.PartyID = req.SupplierID
		}
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		in.IdempotencyKey = r.Header.Get(IdempotencyHeader)
		var inv documents.Invoice
		if kind == documents.KindSale {
			inv, err = h.service.CreateSale(r.Context(), in)
		} else {
			inv, err = h.service.CreatePurchase(r.Context(), in)
		}
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, inv)
	}
}

func (h *Handler) listDocuments(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := invoiceFilter(r, kind)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		invoices, err := h.service.ListDocuments(r.Context(), filter)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusOK, listResponse{Data: invoices, Totals: totalsOf(invoices)})
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	page := shared.NewPagination(httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 50), 0)
	return page.PerPage, page.Offset()
}

func invoiceFilter(r *http.Request, kind documents.Kind) (documents.InvoiceFilter, error) {
	limit, offset := pageParams(r)
	filter := documents.InvoiceFilter{Kind: kind, Limit: limit, Offset: offset}
	partyParam := "customerId"
	if kind == documents.KindPurchase {
		partyParam = "supplierId"
	}
	filter.PartyID = httpx.QueryString(r, partyParam)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := documents.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("paymentMethod"); raw != "" {
		method, err := documents.ParsePaymentMethod(raw, "")
		if err != nil {
			return filter, err
		}
		filter.PaymentMethod = method
	}
	var err error
	if filter.From, err = httpx.QueryDate(r, "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = httpx.QueryDate(r, "to", true); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) getDocument(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := h.service.GetDocument(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) updateStatus(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		status, err := documents.ParseStatus(req.Status)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		inv, err := h.service.UpdateStatus(r.Context(), kind, chi.URLParam(r, "id"), status)
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) cancelDocument(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := h.service.CancelDocument(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		httpx.JSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) deleteDocument(kind documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.DeleteDocument(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in RecordPaymentInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	in.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	payment, err := h.service.RecordPayment(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	filter := documents.PaymentFilter{
		CustomerID: httpx.QueryString(r, "customerId"),
		SupplierID: httpx.QueryString(r, "supplierId"),
		Limit:      limit,
		Offset:     offset,
	}
	switch r.URL.Query().Get("party") {
	case "customer":
		filter.PartyKind = documents.KindSale
	case "supplier":
		filter.PartyKind = documents.KindPurchase
	}
	var err error
	if filter.From, err = httpx.QueryDate(r, "from", false); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if filter.To, err = httpx.QueryDate(r, "to", true); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	payments, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": payments})
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in ExpenseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expense, err := h.service.CreateExpense(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	filter := documents.ExpenseFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("paymentMethod"); raw != "" {
		method, err := documents.ParsePaymentMethod(raw, "")
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		filter.PaymentMethod = method
	}
	var err error
	if filter.From, err = httpx.QueryDate(r, "from", false); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if filter.To, err = httpx.QueryDate(r, "to", true); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expenses, err := h.service.ListExpenses(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": expenses})
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := h.service.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var in ExpenseInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expense, err := h.service.UpdateExpense(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
