package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/catalog"
	"github.com/fjod/go_shoe_store/internal/checkout"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, details string) {
	respondJSON(w, r, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, catalog.ErrUnavailable):
		log.Warn("catalog unavailable", zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "catalog_unavailable", "catalog is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Debug("request ended before completion", zap.Error(err))
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "the request timed out")
	case errors.Is(err, checkout.ErrInvalidForm):
		respondError(w, r, http.StatusBadRequest, "invalid_form", err.Error())
	case errors.Is(err, checkout.ErrSubmissionFailed):
		respondError(w, r, http.StatusBadGateway, "order_submission_failed", "the order could not be placed, please try again")
	default:
		log.Error("unhandled error", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
