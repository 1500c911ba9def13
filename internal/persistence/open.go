package persistence

import (
	"context"
	"fmt"
	"strings"

	"example.com/fittrack/internal/persistence/memory"
	"example.com/fittrack/internal/persistence/mongo"
	"example.com/fittrack/internal/persistence/postgres"
	"example.com/fittrack/internal/persistence/redis"
	"example.com/fittrack/internal/persistence/sqlite"
)

// Backend is a Store that owns a connection.
type Backend interface {
	Store
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
	RedisURL    string
	RedisPrefix string
	MongoURI    string
	MongoDB     string
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(opts.SQLitePath)
	case "postgres":
		return postgres.Open(ctx, opts.PostgresURL)
	case "redis":
		return redis.Open(ctx, opts.RedisURL, opts.RedisPrefix)
	case "mongo":
		return mongo.Open(ctx, opts.MongoURI, opts.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
