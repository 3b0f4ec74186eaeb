package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/kartverse/shopfront/internal/domain/product"
)

type productResponse struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Category    string   `json:"category,omitempty"`
	Available   bool     `json:"available"`
}

type categoryResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f := product.Filter{
		Category:      r.URL.Query().Get("category"),
		OnlyAvailable: r.URL.Query().Get("all") == "",
	}

	products, err := h.catalog.List(r.Context(), f)
	if err != nil {
		h.lg.Error("list products", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list products")
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.catalog.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.lg.Error("get product", zap.String("slug", slug), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not get product")
		return
	}

	resp := h.toProductResponse(*p)
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.lg.Error("list categories", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{Slug: c.Slug, Name: c.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	resp := productResponse{
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Available:   p.Available,
	}
	if p.Price.Valid {
		v := p.Price.Decimal.InexactFloat64()
		resp.Price = &v
	}
	if p.Image != "" {
		resp.Image = h.imageBaseURL + p.Image
	}
	return resp
}
