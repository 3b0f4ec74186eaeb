// Package handler exposes the storefront HTTP API: catalog reads, cart
// mutations, checkout, and the operator status-transition endpoint.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/cart"
	"github.com/kartverse/shopfront/internal/domain/checkout"
	"github.com/kartverse/shopfront/internal/domain/order"
	"github.com/kartverse/shopfront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Handler wires HTTP routes to the domain services.
type Handler struct {
	catalog      product.Store
	carts        *cart.Manager
	checkout     *checkout.Coordinator
	orders       order.Repository
	imageBaseURL string
	lg           *zap.Logger
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	catalog product.Store,
	carts *cart.Manager,
	co *checkout.Coordinator,
	orders order.Repository,
	lg *zap.Logger,
) *Handler {
	return &Handler{
		catalog:      catalog,
		carts:        carts,
		checkout:     co,
		orders:       orders,
		imageBaseURL: cfg.ImageBaseURL,
		lg:           lg,
	}
}

// Routes mounts the full API on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(sessionCookie)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)
		r.Get("/products/{slug}", h.getProduct)

		r.Get("/cart", h.getCart)
		r.Put("/cart/items/{slug}", h.putCartItem)
		r.Delete("/cart/items/{slug}", h.deleteCartItem)

		r.Post("/checkout", h.postCheckout)

		r.Patch("/orders/{id}/status", h.patchOrderStatus)
	})
	return r
}

type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}
