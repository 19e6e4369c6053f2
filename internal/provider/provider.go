package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_shoe_store/internal/lineitem"
	"github.com/fjod/go_shoe_store/internal/storage"
)

var ErrNoProvider = errors.New("stores accessed outside of a provider scope")

// Stores is the one bag and one cart of an application session.
type Stores struct {
	Bag  *lineitem.Bag
	Cart *lineitem.Cart
}

// New creates both stores on st and loads their persisted state.
func New(ctx context.Context, st storage.Storage, opts ...lineitem.Option) *Stores {
	s := &Stores{
		Bag:  lineitem.NewBag(st, opts...),
		Cart: lineitem.NewCart(st, opts...),
	}
	s.Bag.Initialize(ctx)
	s.Cart.Initialize(ctx)
	return s
}

func (s *Stores) Close() {
	s.Bag.Close()
	s.Cart.Close()
}

type ctxKey struct{}

func WithStores(ctx context.Context, s *Stores) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Stores, error) {
	s, ok := ctx.Value(ctxKey{}).(*Stores)
	if !ok || s == nil {
		return nil, ErrNoProvider
	}
	return s, nil
}

// Bag panics with ErrNoProvider when ctx carries no stores.
func Bag(ctx context.Context) *lineitem.Bag {
	return mustStores(ctx).Bag
}

// Cart panics with ErrNoProvider when ctx carries no stores.
func Cart(ctx context.Context) *lineitem.Cart {
	return mustStores(ctx).Cart
}

func mustStores(ctx context.Context) *Stores {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

// Middleware makes s available to every request handled by next.
func Middleware(s *Stores) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithStores(r.Context(), s)))
		})
	}
}
