package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

// DefaultTopN is the list length used when a caller does not ask for one.
const DefaultTopN = 5

// DefaultFetchTimeout bounds a shared full-catalog fetch.
const DefaultFetchTimeout = 30 * time.Second

// Accessor answers read-only catalog queries. Every query fails as a whole
// with ErrUnavailable when the source fails.
type Accessor struct {
	source       Source
	group        singleflight.Group
	fetchTimeout time.Duration
}

func NewAccessor(source Source) *Accessor {
	return &Accessor{source: source, fetchTimeout: DefaultFetchTimeout}
}

// GetAll returns the full catalog. Concurrent callers share one fetch; the
// fetch does not belong to any of them, so a caller leaving early only ends
// its own wait.
func (a *Accessor) GetAll(ctx context.Context) ([]domain.Product, error) {
	ch := a.group.DoChan("all", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.fetchTimeout)
		defer cancel()
		return a.source.All(fetchCtx)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		logger.FromContext(ctx).Warn("catalog fetch failed", zap.Error(res.Err))
		return nil, unavailable(res.Err)
	}
	if res.Shared {
		logger.FromContext(ctx).Debug("catalog fetch shared")
	}
	// Callers sharing a fetch must not see each other's edits.
	products := res.Val.([]domain.Product)
	return append([]domain.Product(nil), products...), nil
}

// GetByID reports found=false for an unknown id; that is not an error.
func (a *Accessor) GetByID(ctx context.Context, id string) (domain.Product, bool, error) {
	if src, ok := a.source.(idLookup); ok {
		p, found, err := src.ByID(ctx, id)
		if err != nil {
			return domain.Product{}, false, lookupFailed(ctx, err)
		}
		return p, found, nil
	}

	products, err := a.GetAll(ctx)
	if err != nil {
		return domain.Product{}, false, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.Product{}, false, nil
}

// GetByBrand matches brand exactly, keeping catalog order.
func (a *Accessor) GetByBrand(ctx context.Context, brand string) ([]domain.Product, error) {
	if src, ok := a.source.(brandLookup); ok {
		products, err := src.ByBrand(ctx, brand)
		if err != nil {
			return nil, lookupFailed(ctx, err)
		}
		return products, nil
	}

	products, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Product, 0)
	for _, p := range products {
		if p.Brand == brand {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// GetBrands returns each brand once, sorted.
func (a *Accessor) GetBrands(ctx context.Context) ([]string, error) {
	products, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(products))
	brands := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Brand]; ok {
			continue
		}
		seen[p.Brand] = struct{}{}
		brands = append(brands, p.Brand)
	}
	sort.Strings(brands)
	return brands, nil
}

func (a *Accessor) GetCheapest(ctx context.Context, n int) ([]domain.Product, error) {
	return a.top(ctx, n, func(x, y domain.Product) bool {
		return x.Price.Decimal().LessThan(y.Price.Decimal())
	})
}

func (a *Accessor) GetMostExpensive(ctx context.Context, n int) ([]domain.Product, error) {
	return a.top(ctx, n, func(x, y domain.Product) bool {
		return x.Price.Decimal().GreaterThan(y.Price.Decimal())
	})
}

// top returns the first n products under less. Ties keep catalog order.
func (a *Accessor) top(ctx context.Context, n int, less func(x, y domain.Product) bool) ([]domain.Product, error) {
	products, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []domain.Product{}, nil
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
	if n > len(products) {
		n = len(products)
	}
	return products[:n], nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// lookupFailed reports the caller's own cancellation as is; anything else is
// the source failing.
func lookupFailed(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return unavailable(err)
}
