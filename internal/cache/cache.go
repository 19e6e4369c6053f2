package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_shoe_store/internal/domain"
)

type CatalogCache interface {
	Get(ctx context.Context, scope string) ([]domain.Product, error)
	Set(ctx context.Context, scope string, products []domain.Product) error
	Delete(ctx context.Context, scope string) error
}

var ErrCacheMiss = errors.New("cache miss")
