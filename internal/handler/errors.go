package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/insight"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/pos"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/pkg/httpmiddleware"
)

// errorStatus maps domain errors to HTTP status codes. Zero means the error
// is unexpected.
func errorStatus(err error) int {
	var (
		badReq  *badRequestError
		invalid *validationError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pos.ErrSessionNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, member.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrCheckoutInProgress),
		errors.Is(err, cart.ErrNotConfirming),
		errors.Is(err, cart.ErrPromoNotEligible):
		return http.StatusConflict
	case errors.Is(err, cart.ErrInvalidPaymentMethod),
		errors.Is(err, cart.ErrMemberRequired),
		errors.Is(err, cashflow.ErrInvalidType),
		errors.Is(err, cashflow.ErrInvalidAmount),
		errors.Is(err, cashflow.ErrEmptyDescription),
		errors.Is(err, cashflow.ErrUnknownCategory),
		errors.Is(err, insight.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity
	}
	return 0
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status := errorStatus(err); status != 0 {
		httpmiddleware.WriteError(w, status, err.Error())
		return
	}
	zctx.From(r.Context()).Error("Request failed",
		zap.String("route", r.Pattern),
		zap.Error(err),
	)
	httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
}
