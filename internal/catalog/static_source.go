package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fjod/go_shoe_store/internal/domain"
)

//go:embed data/catalog.json
var bundledCatalog []byte

// StaticSource serves a catalog read once at construction.
type StaticSource struct {
	products []domain.Product
}

// NewBundledSource serves the catalog compiled into the binary.
func NewBundledSource() (*StaticSource, error) {
	return NewStaticSource(bundledCatalog)
}

func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return NewStaticSource(data)
}

// NewStaticSource parses a JSON array of products. Ids must be present and
// unique.
func NewStaticSource(data []byte) (*StaticSource, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product %d has no ShoeId", ErrInvalidData, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate ShoeId %s", ErrInvalidData, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return &StaticSource{products: products}, nil
}

func (s *StaticSource) All(context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), s.products...), nil
}
