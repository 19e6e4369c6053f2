package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/internal/lineitem"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

// StoreHandler serves one line item store. The store is looked up per request
// from the provider scope.
type StoreHandler[T domain.Item] struct {
	catalog Catalog
	store   func(ctx context.Context) *lineitem.Store[T]
	build   func(p domain.Product, size string) T
	timeout time.Duration
}

func NewStoreHandler[T domain.Item](
	c Catalog,
	store func(ctx context.Context) *lineitem.Store[T],
	build func(p domain.Product, size string) T,
	timeout time.Duration,
) *StoreHandler[T] {
	return &StoreHandler[T]{catalog: c, store: store, build: build, timeout: timeout}
}

type AddItemRequestDTO struct {
	ShoeID string `json:"shoe_id"`
	Size   string `json:"size"`
}

type StoreResponse[T domain.Item] struct {
	Items []T    `json:"items"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

func toStoreResponse[T domain.Item](snap lineitem.Snapshot[T]) StoreResponse[T] {
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	return StoreResponse[T]{
		Items: items,
		Count: snap.Count(),
		Total: snap.Total.StringFixed(2),
	}
}

func (h *StoreHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, toStoreResponse(h.store(r.Context()).Snapshot()))
}

// AddItem copies the product's fields into a new line item. An empty size
// selects the product's default size.
func (h *StoreHandler[T]) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ShoeID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "shoe_id is required")
		return
	}

	p, found, err := h.catalog.GetByID(ctx, req.ShoeID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !found {
		respondError(w, r, http.StatusNotFound, "not_found", "product not found")
		return
	}

	size := req.Size
	if size == "" {
		size = p.DefaultSize()
	}
	if len(p.AvailableSizes) > 0 && !p.OffersSize(size) {
		respondError(w, r, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("size %q is not available for this product", size))
		return
	}

	store := h.store(ctx)
	inserted := store.Add(ctx, h.build(p, size))

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	logger.FromContext(ctx).Debug("item added",
		zap.String("store", store.Name()),
		zap.String("shoe_id", p.ID),
		zap.Bool("inserted", inserted),
	)
	respondJSON(w, r, status, toStoreResponse(store.Snapshot()))
}

func (h *StoreHandler[T]) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store := h.store(r.Context())
	store.Remove(r.Context(), chi.URLParam(r, "shoe_id"))
	respondJSON(w, r, http.StatusOK, toStoreResponse(store.Snapshot()))
}

func (h *StoreHandler[T]) Clear(w http.ResponseWriter, r *http.Request) {
	store := h.store(r.Context())
	store.Clear(r.Context())
	respondJSON(w, r, http.StatusOK, toStoreResponse(store.Snapshot()))
}

// Events streams a "snapshot" server-sent event for the current state and
// after every change, until the client goes away or the store is closed.
func (h *StoreHandler[T]) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.FromContext(r.Context()).Warn("streaming unsupported", zap.Error(err))
		return
	}

	updates, cancel := h.store(r.Context()).Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(toStoreResponse(snap))
			if err != nil {
				logger.FromContext(r.Context()).Warn("failed to encode snapshot", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
