// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// DefaultLanguage is used when the request carries no usable Accept-Language.
var DefaultLanguage = "ar"

// RespondError maps domain errors to localized RFC7807 responses. Unknown
// errors are logged and answered with a generic 500.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	loc := shared.NewLocalizer(r.Header.Get("Accept-Language"), DefaultLanguage)

	var (
		stockErr      *shared.InsufficientStockError
		cashErr       *shared.InsufficientCashboxError
		transitionErr *shared.StatusTransitionError
		validationErr *shared.ValidationError
		notFoundErr   *shared.NotFoundError
		conflictErr   *shared.ConflictError
	)
	switch {
	case errors.As(err, &stockErr):
		Problem(w, http.StatusConflict, "Insufficient Stock", loc.T(shared.MsgInsufficientStock, stockErr.ProductID, stockErr.Available, stockErr.Requested))
	case errors.As(err, &cashErr):
		Problem(w, http.StatusConflict, "Insufficient Cashbox Balance", loc.T(shared.MsgInsufficientCashbox, shared.FormatMoney(cashErr.Balance), shared.FormatMoney(cashErr.Requested)))
	case errors.As(err, &transitionErr):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Status", loc.T(shared.MsgInvalidStatus, transitionErr.From, transitionErr.To))
	case errors.As(err, &validationErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", loc.T(shared.MsgValidationField, validationErr.Field, validationErr.Reason))
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", loc.T(shared.MsgValidation))
	case errors.As(err, &notFoundErr):
		Problem(w, http.StatusNotFound, "Not Found", loc.T(shared.MsgNotFoundEntity, notFoundErr.Entity))
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", loc.T(shared.MsgNotFound))
	case errors.As(err, &conflictErr) && conflictErr.Value != "":
		Problem(w, http.StatusConflict, "Conflict", loc.T(shared.MsgConflictField, conflictErr.Value, conflictErr.Field))
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", loc.T(shared.MsgConflict))
	default:
		if logger != nil {
			logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", loc.T(shared.MsgInternal))
	}
}
