package checkout

import (
	"context"

	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

// LogSubmitter accepts every order and only logs it.
type LogSubmitter struct{}

func (LogSubmitter) Submit(ctx context.Context, order domain.Order) error {
	logger.FromContext(ctx).Info("order data",
		zap.String("order_id", order.OrderID),
		zap.String("full_name", order.FullName),
		zap.String("email", order.EmailAddress),
		zap.String("phone", order.PhoneNumber),
		zap.String("street_address", order.StreetAddress),
		zap.String("address_line_2", order.AddressLine2),
		zap.String("city", order.CityTown),
		zap.String("state", order.StateProvinceRegion),
		zap.String("postal_code", order.PostCode),
		zap.String("country", order.Country),
		zap.Strings("shoe_ids", order.ShoeIDs),
		zap.Strings("sizes", order.Sizes),
	)
	return nil
}
