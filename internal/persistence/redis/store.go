// Package redis provides a Redis-backed key-value store.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"example.com/fittrack/internal/observability"
)

// Store keeps every value under prefix+key without expiry.
type Store struct {
	client *redis.Client
	prefix string
}

// Open parses url, connects and verifies the connection with PING.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStore(client, prefix), nil
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Get implements persistence.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		observability.RecordStoreError("redis", "get")
		return nil, false, err
	}
	return value, true, nil
}

// Set implements persistence.Store.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		observability.RecordStoreError("redis", "set")
		return err
	}
	return nil
}

// Remove implements persistence.Store.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		observability.RecordStoreError("redis", "remove")
		return err
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
