package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage slot not found")

// Storage is a durable string key-value store. Get returns ErrNotFound for a
// slot that was never written.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
