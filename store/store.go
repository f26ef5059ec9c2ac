// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"encoding/json"
)

// Store is a flat key-value store of JSON documents.
type Store interface {
	// Get returns the document stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value json.RawMessage, ok bool, err error)

	// Set stores value under key, replacing any previous document.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the keys starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Lifecycle
	Close() error
}
