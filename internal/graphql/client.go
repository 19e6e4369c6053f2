package graphql

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gql "github.com/machinebox/graphql"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/pkg/circuitbreaker"
	"github.com/fjod/go_shoe_store/pkg/logger"
)

const apiKeyHeader = "x-api-key"

const shoeFields = `ShoeId Brand Model Price Image AvailableSizes`

const (
	shoesQuery          = `query Shoes { shoes { ` + shoeFields + ` } }`
	shoeQuery           = `query Shoe($id: ID!) { shoe(ShoeId: $id) { ` + shoeFields + ` } }`
	shoesByBrandQuery   = `query ShoesByBrand($brand: String!) { shoesByBrand(Brand: $brand) { ` + shoeFields + ` } }`
	createOrderMutation = `mutation CreateOrder($order: OrderInput!) { createOrder(order: $order) { OrderId } }`
)

// Client talks to the catalog/order query service. Every call carries the
// API key and goes through a circuit breaker.
type Client struct {
	gql     *gql.Client
	apiKey  string
	breaker *circuitbreaker.Breaker
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(o *clientOptions) { o.breaker = b }
}

func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if o.breaker == nil {
		o.breaker = circuitbreaker.New(circuitbreaker.DefaultConfig("query-service"), zap.L())
	}

	return &Client{
		gql:     gql.NewClient(endpoint, gql.WithHTTPClient(o.httpClient)),
		apiKey:  apiKey,
		breaker: o.breaker,
	}
}

func (c *Client) All(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Shoes []domain.Product `json:"shoes"`
	}
	if err := c.run(ctx, c.newRequest(shoesQuery), &resp); err != nil {
		return nil, fmt.Errorf("query shoes: %w", err)
	}
	if resp.Shoes == nil {
		return []domain.Product{}, nil
	}
	return resp.Shoes, nil
}

func (c *Client) ByID(ctx context.Context, id string) (domain.Product, bool, error) {
	req := c.newRequest(shoeQuery)
	req.Var("id", id)

	var resp struct {
		Shoe *domain.Product `json:"shoe"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return domain.Product{}, false, fmt.Errorf("query shoe: %w", err)
	}
	if resp.Shoe == nil {
		return domain.Product{}, false, nil
	}
	return *resp.Shoe, true, nil
}

func (c *Client) ByBrand(ctx context.Context, brand string) ([]domain.Product, error) {
	req := c.newRequest(shoesByBrandQuery)
	req.Var("brand", brand)

	var resp struct {
		Shoes []domain.Product `json:"shoesByBrand"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query shoes by brand: %w", err)
	}
	if resp.Shoes == nil {
		return []domain.Product{}, nil
	}
	return resp.Shoes, nil
}

// Submit sends one createOrder mutation.
func (c *Client) Submit(ctx context.Context, order domain.Order) error {
	req := c.newRequest(createOrderMutation)
	req.Var("order", order)

	var resp struct {
		CreateOrder struct {
			OrderID string `json:"OrderId"`
		} `json:"createOrder"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	logger.FromContext(ctx).Info("order accepted by query service",
		zap.String("order_id", order.OrderID),
		zap.String("confirmed_id", resp.CreateOrder.OrderID),
	)
	return nil
}

func (c *Client) newRequest(q string) *gql.Request {
	req := gql.NewRequest(q)
	req.Header.Set(apiKeyHeader, c.apiKey)
	return req
}

func (c *Client) run(ctx context.Context, req *gql.Request, resp any) error {
	_, err := circuitbreaker.Do(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.gql.Run(ctx, req, resp)
	})
	return err
}
