package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

const SuccessMessage = "Order Placed Successfully!"

// Submitter hands a finished order to whoever fulfils it.
type Submitter interface {
	Submit(ctx context.Context, order domain.Order) error
}

// Selection is the set of items being ordered, usually the bag.
type Selection interface {
	Lines() []domain.LineItem
	Remove(ctx context.Context, shoeIDs ...string)
}

type Confirmation struct {
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

type Service struct {
	submitter Submitter
	newID     func() string
}

func NewService(submitter Submitter) *Service {
	return &Service{
		submitter: submitter,
		newID:     uuid.NewString,
	}
}

// PlaceOrder submits selection with form's delivery details. Once the
// submitter accepts the order, the ordered items leave the selection; items
// added while the order was in flight stay.
func (s *Service) PlaceOrder(ctx context.Context, selection Selection, form ShippingForm) (*Confirmation, error) {
	log := logger.FromContext(ctx)

	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	// An empty selection is still submitted, as an order with no items.
	lines := selection.Lines()
	order := BuildOrder(s.newID(), form, lines)
	if err := s.submitter.Submit(ctx, order); err != nil {
		log.Error("order submission failed",
			zap.String("order_id", order.OrderID),
			zap.Int("items", len(lines)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	selection.Remove(ctx, order.ShoeIDs...)
	log.Info("order placed", zap.String("order_id", order.OrderID), zap.Int("items", len(lines)))

	return &Confirmation{OrderID: order.OrderID, Message: SuccessMessage}, nil
}

// BuildOrder flattens lines into the parallel ShoeIDs/Sizes sequences.
func BuildOrder(orderID string, form ShippingForm, lines []domain.LineItem) domain.Order {
	order := domain.Order{
		OrderID:             orderID,
		FullName:            form.FullName,
		EmailAddress:        form.Email,
		PhoneNumber:         form.Phone,
		StreetAddress:       form.StreetAddress,
		AddressLine2:        form.AddressLine2,
		CityTown:            form.City,
		StateProvinceRegion: form.State,
		PostCode:            form.PostalCode,
		Country:             form.Country,
		ShoeIDs:             make([]string, len(lines)),
		Sizes:               make([]string, len(lines)),
	}
	for i, l := range lines {
		order.ShoeIDs[i] = l.ShoeID
		order.Sizes[i] = l.Size
	}
	return order
}
