package checkout

import (
	"context"
	"slices"

	"github.com/fjod/go_shoe_store/internal/domain"
)

// MockSubmitter implements Submitter for testing
type MockSubmitter struct {
	Err       error
	Submitted []domain.Order
}

func (m *MockSubmitter) Submit(_ context.Context, order domain.Order) error {
	m.Submitted = append(m.Submitted, order)
	return m.Err
}

// MockSelection implements Selection for testing
type MockSelection struct {
	Items   []domain.LineItem
	Removed []string
}

func (m *MockSelection) Lines() []domain.LineItem {
	return append([]domain.LineItem(nil), m.Items...)
}

func (m *MockSelection) Remove(_ context.Context, shoeIDs ...string) {
	m.Removed = append(m.Removed, shoeIDs...)
	kept := m.Items[:0:0]
	for _, it := range m.Items {
		if !slices.Contains(shoeIDs, it.ShoeID) {
			kept = append(kept, it)
		}
	}
	m.Items = kept
}
