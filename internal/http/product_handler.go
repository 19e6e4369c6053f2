package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_shoe_store/internal/catalog"
	"github.com/fjod/go_shoe_store/internal/domain"
)

// Catalog is the read side the handlers need.
type Catalog interface {
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, bool, error)
	GetByBrand(ctx context.Context, brand string) ([]domain.Product, error)
	GetBrands(ctx context.Context) ([]string, error)
	GetCheapest(ctx context.Context, n int) ([]domain.Product, error)
	GetMostExpensive(ctx context.Context, n int) ([]domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(c Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: c, timeout: timeout}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

type BrandsResponse struct {
	Brands []string `json:"brands"`
}

// List serves the whole catalog, or one brand with ?brand=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		products []domain.Product
		err      error
	)
	if brand := r.URL.Query().Get("brand"); brand != "" {
		products, err = h.catalog.GetByBrand(ctx, brand)
	} else {
		products, err = h.catalog.GetAll(ctx)
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	p, found, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, http.StatusNotFound, "not_found", "product not found")
		return
	}

	respondJSON(w, r, http.StatusOK, p)
}

func (h *ProductHandler) Brands(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	brands, err := h.catalog.GetBrands(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if brands == nil {
		brands = []string{}
	}

	respondJSON(w, r, http.StatusOK, BrandsResponse{Brands: brands})
}

func (h *ProductHandler) Cheapest(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, h.catalog.GetCheapest)
}

func (h *ProductHandler) MostExpensive(w http.ResponseWriter, r *http.Request) {
	h.top(w, r, h.catalog.GetMostExpensive)
}

func (h *ProductHandler) top(w http.ResponseWriter, r *http.Request, pick func(context.Context, int) ([]domain.Product, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	n := catalog.DefaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "n must be an integer")
			return
		}
		n = v
	}

	products, err := pick(ctx, n)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, ProductsResponse{Products: nonNil(products)})
}

func nonNil(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
