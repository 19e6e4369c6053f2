package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/cache"
	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

const allScope = "all"

// CachedSource keeps the full product list of another source in a cache.
// Cache failures never fail a read.
type CachedSource struct {
	source Source
	cache  cache.CatalogCache
}

func NewCachedSource(source Source, c cache.CatalogCache) *CachedSource {
	return &CachedSource{source: source, cache: c}
}

func (c *CachedSource) All(ctx context.Context) ([]domain.Product, error) {
	log := logger.FromContext(ctx)

	products, err := c.cache.Get(ctx, allScope)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("catalog cache get failed", zap.Error(err))
	}

	products, err = c.source.All(ctx)
	if err != nil {
		return nil, err
	}

	go func(products []domain.Product) {
		if err := c.cache.Set(context.WithoutCancel(ctx), allScope, products); err != nil {
			log.Warn("catalog cache set failed", zap.Error(err))
		}
	}(append([]domain.Product(nil), products...))

	return products, nil
}

// Invalidate drops the cached list so the next read refetches.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, allScope)
}

// Refresh replaces whatever list is cached with a fresh fetch from the
// source. Used at startup so a list cached by an earlier deployment is not
// served.
func (c *CachedSource) Refresh(ctx context.Context) error {
	if err := c.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	products, err := c.source.All(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	if err := c.cache.Set(ctx, allScope, products); err != nil {
		return fmt.Errorf("fill catalog cache: %w", err)
	}
	return nil
}
