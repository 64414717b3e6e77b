package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clipbook/clipbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Document is the durable shape of one named collection: the full
// bookmark list plus the user settings, written as a single JSON value.
// A save replaces the whole document; the single SET keeps each write
// atomic.
type Document struct {
	Bookmarks []*domain.Bookmark `json:"bookmarks"`
	Settings  domain.Settings    `json:"settings"`
}

// Store handles Redis operations for collection documents
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Save writes the whole document under the named key. No TTL: the
// collection is durable state, not a cache.
func (s *Store) Save(ctx context.Context, name string, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	key := StoreKey(name)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// Load retrieves the named document. A missing key is not an error:
// it returns (nil, nil) so first runs start from an empty collection.
func (s *Store) Load(ctx context.Context, name string) (*Document, error) {
	key := StoreKey(name)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &doc, nil
}

// Exists reports whether the named document is present.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, StoreKey(name)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check document: %w", err)
	}
	return n > 0, nil
}
