package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_shoe_store/internal/domain"
)

var (
	ErrUnavailable = errors.New("catalog unavailable")
	ErrInvalidData = errors.New("invalid catalog data")
)

// Source yields the full product list in catalog order.
type Source interface {
	All(ctx context.Context) ([]domain.Product, error)
}

// Sources that can answer narrower queries without a full fetch implement
// these as well.
type (
	idLookup interface {
		ByID(ctx context.Context, id string) (domain.Product, bool, error)
	}
	brandLookup interface {
		ByBrand(ctx context.Context, brand string) ([]domain.Product, error)
	}
)
