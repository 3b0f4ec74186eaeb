package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/cart"
)

type cartLineResponse struct {
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type cartSummaryResponse struct {
	// Entries is the raw cart mapping, including slugs that no longer
	// resolve against the catalog.
	Entries map[string]int `json:"entries"`
	// Lines holds only the entries that resolved and priced.
	Lines []cartLineResponse `json:"lines"`
	Total float64            `json:"total"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartMutationResponse struct {
	Items   int    `json:"items"`
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	entries, err := h.carts.Items(ctx, sid)
	if err != nil {
		h.cartError(w, "read cart", err)
		return
	}

	lines, total, err := h.carts.ResolveAndPrice(ctx, sid)
	if err != nil {
		h.cartError(w, "price cart", err)
		return
	}

	resp := cartSummaryResponse{
		Entries: entries,
		Lines:   make([]cartLineResponse, len(lines)),
		Total:   total.InexactFloat64(),
	}
	for i, l := range lines {
		resp.Lines[i] = cartLineResponse{
			Slug:      l.Product.Slug,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price.Decimal.InexactFloat64(),
			LineTotal: l.Total.InexactFloat64(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) putCartItem(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	count, err := h.carts.SetQuantity(r.Context(), sessionID(r), slug, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			respondError(w, http.StatusUnprocessableEntity, cart.ErrInvalidQuantity.Error())
			return
		}
		h.cartError(w, "set cart quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, cartMutationResponse{Items: count})
}

func (h *Handler) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)
	slug := chi.URLParam(r, "slug")

	err := h.carts.Remove(ctx, sid, slug)
	if err != nil && !errors.Is(err, cart.ErrItemNotFound) {
		h.cartError(w, "remove cart item", err)
		return
	}

	count, cerr := h.carts.CountDistinct(ctx, sid)
	if cerr != nil {
		h.cartError(w, "count cart items", cerr)
		return
	}

	resp := cartMutationResponse{Items: count}
	// A missing item is a warning, not a failure: the rest of the cart is
	// untouched and the caller's flow continues.
	if errors.Is(err, cart.ErrItemNotFound) {
		resp.Warning = "item was not in the cart"
	}
	respondJSON(w, http.StatusOK, resp)
}

// cartError maps session-store failures. A malformed session payload is
// surfaced as a conflict so the client can reset its cart; everything else
// is a plain server error.
func (h *Handler) cartError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, cart.ErrMalformedCart) {
		respondError(w, http.StatusConflict, "cart session is corrupt, clear it and retry")
		return
	}
	h.lg.Error(op, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "cart is temporarily unavailable")
}
