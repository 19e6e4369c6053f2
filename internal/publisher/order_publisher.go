package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

const (
	DefaultOrdersTopic = "orders"
	orderPlacedEvent   = "OrderPlaced"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublisher submits orders as Kafka messages keyed by order id.
// Writes are synchronous so a broker failure reaches the caller.
type OrderPublisher struct {
	writer messageWriter
}

func NewOrderPublisher(topic string, brokers ...string) *OrderPublisher {
	if topic == "" {
		topic = DefaultOrdersTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &OrderPublisher{writer: w}
}

func (p *OrderPublisher) Submit(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(orderPlacedEvent)},
		},
		Time: time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order failed: %w", err)
	}

	logger.FromContext(ctx).Info("order published", zap.String("order_id", order.OrderID))
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
