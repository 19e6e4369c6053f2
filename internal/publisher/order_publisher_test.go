package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shoe_store/internal/domain"
)

// MockWriter implements messageWriter for testing
type MockWriter struct {
	Messages []kafkaGo.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		OrderID:       "89d7ab43-f11c-4f08-a25f-505a82376a2a",
		FullName:      "John Doe",
		EmailAddress:  "john.doe@example.com",
		PhoneNumber:   "123-456-7890",
		StreetAddress: "123 Main St",
		CityTown:      "Anytown",
		PostCode:      "12345",
		Country:       "United States",
		ShoeIDs:       []string{"ad8bd387", "923e0c42"},
		Sizes:         []string{"40", "42"},
	}
}

func TestSubmit_WritesKeyedMessage(t *testing.T) {
	w := &MockWriter{}
	p := &OrderPublisher{writer: w}

	require.NoError(t, p.Submit(context.Background(), testOrder()))

	require.Len(t, w.Messages, 1)
	msg := w.Messages[0]
	assert.Equal(t, "89d7ab43-f11c-4f08-a25f-505a82376a2a", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "OrderPlaced", string(msg.Headers[0].Value))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "John Doe", payload["FullName"])
	assert.Equal(t, []any{"ad8bd387", "923e0c42"}, payload["ShoeId"])
	assert.Equal(t, []any{"40", "42"}, payload["Size"])
}

func TestSubmit_WriterErrorSurfaces(t *testing.T) {
	boom := errors.New("leader not available")
	p := &OrderPublisher{writer: &MockWriter{Err: boom}}

	err := p.Submit(context.Background(), testOrder())
	assert.ErrorIs(t, err, boom)
}

func TestClose(t *testing.T) {
	w := &MockWriter{}
	p := &OrderPublisher{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.Closed)
}

func TestNewOrderPublisher_DefaultTopic(t *testing.T) {
	p := NewOrderPublisher("", "localhost:9092")
	defer p.Close()

	w, ok := p.writer.(*kafkaGo.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultOrdersTopic, w.Topic)
}
