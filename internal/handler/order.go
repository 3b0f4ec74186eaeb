package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/order"
)

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type statusUpdateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// patchOrderStatus moves an order through its status machine. This is an
// operator action, separate from checkout; only the defined forward
// transitions are accepted.
func (h *Handler) patchOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	to, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.lg.Error("get order", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not get order")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, o.Status, to); err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidTransition):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, order.ErrNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		default:
			h.lg.Error("update order status", zap.String("id", id), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "could not update order status")
		}
		return
	}

	respondJSON(w, http.StatusOK, statusUpdateResponse{ID: id, Status: string(to)})
}
