package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler manages master data endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Post("/bulk-prices", h.bulkPrices)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", h.listSuppliers)
		r.Post("/", h.createSupplier)
		r.Get("/{id}", h.getSupplier)
		r.Put("/{id}", h.updateSupplier)
		r.Delete("/{id}", h.deleteSupplier)
	})
}

func page(r *http.Request) (limit, offset int) {
	p := shared.NewPagination(httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "limit", 100), 0)
	return p.PerPage, p.Offset()
}

func partyFilter(r *http.Request) documents.PartyFilter {
	limit, offset := page(r)
	return documents.PartyFilter{
		Search:          r.URL.Query().Get("search"),
		PositiveBalance: r.URL.Query().Get("withBalance") == "true",
		Limit:           limit,
		Offset:          offset,
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if data == nil {
		w.WriteHeader(status)
		return
	}
	httpx.JSON(w, status, data)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)
	filter := documents.ProductFilter{
		CategoryID: httpx.QueryString(r, "categoryId"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Search:     r.URL.Query().Get("search"),
		Limit:      limit,
		Offset:     offset,
	}
	products, err := h.service.ListProducts(r.Context(), filter)
	h.respond(w, r, http.StatusOK, map[string]any{"data": products}, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, product, err)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), in)
	h.respond(w, r, http.StatusCreated, product, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	h.respond(w, r, http.StatusOK, product, err)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) bulkPrices(w http.ResponseWriter, r *http.Request) {
	var in BulkPriceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	result, err := h.service.BulkAdjustPrices(r.Context(), in)
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	h.respond(w, r, http.StatusOK, map[string]any{"data": categories}, err)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), in)
	h.respond(w, r, http.StatusCreated, category, err)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	h.respond(w, r, http.StatusOK, category, err)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context(), partyFilter(r))
	h.respond(w, r, http.StatusOK, map[string]any{"data": customers}, err)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, customer, err)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in CustomerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), in)
	h.respond(w, r, http.StatusCreated, customer, err)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var in CustomerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), in)
	h.respond(w, r, http.StatusOK, customer, err)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteCustomer(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context(), partyFilter(r))
	h.respond(w, r, http.StatusOK, map[string]any{"data": suppliers}, err)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, supplier, err)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), in)
	h.respond(w, r, http.StatusCreated, supplier, err)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	supplier, err := h.service.UpdateSupplier(r.Context(), chi.URLParam(r, "id"), in)
	h.respond(w, r, http.StatusOK, supplier, err)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteSupplier(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusNoContent, nil, err)
}
