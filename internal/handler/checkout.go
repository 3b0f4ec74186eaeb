package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/checkout"
	"github.com/kartverse/shopfront/internal/domain/order"
)

type checkoutResponse struct {
	OrderID string   `json:"order_id"`
	Dropped []string `json:"dropped,omitempty"`
	// Warning carries non-fatal post-commit conditions, such as a failed
	// notification.
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) postCheckout(w http.ResponseWriter, r *http.Request) {
	var form order.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.checkout.Checkout(r.Context(), sessionID(r), form)
	if err != nil {
		h.checkoutError(w, err)
		return
	}

	resp := checkoutResponse{
		OrderID: res.OrderID,
		Dropped: res.Dropped,
	}
	if !res.Notified {
		resp.Warning = "order notification was not sent"
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) checkoutError(w http.ResponseWriter, err error) {
	var ferrs order.FieldErrors
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		// Distinct from validation failures: no form was evaluated.
		respondError(w, http.StatusConflict, "cart is empty")
	case errors.As(err, &ferrs):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "invalid order form",
			Fields:  ferrs,
		})
	default:
		// Persistence failed and rolled back; the cart is intact for a
		// retry.
		h.lg.Error("checkout", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not place order, please retry")
	}
}
