package cashbox

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes the cashbox over HTTP.
type Handler struct {
	service *Service
	writer  Writer
	logger  *slog.Logger
}

// NewHandler builds Handler. Reads come from service; manual entries go
// through writer.
func NewHandler(service *Service, writer Writer, logger *slog.Logger) *Handler {
	return &Handler{service: service, writer: writer, logger: logger}
}

// MountRoutes registers cashbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.summary)
	r.Get("/balance", h.balance)
	r.Post("/", h.add)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), httpx.QueryInt(r, "limit", 0))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Balance(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"balance": shared.FormatMoney(balance)})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var in AddInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	entry, err := h.writer.AddCashboxTransaction(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}
