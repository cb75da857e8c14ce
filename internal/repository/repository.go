package repository

import (
	"context"
	"fmt"
)

// Store is the durability port behind the dashboard. Values are opaque
// serialized blobs. Get returns nil, nil for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Options struct {
	Backend string
	DBPath  string
	Dir     string
	Redis   RedisConfig
}

// Open builds the Store named by opts.Backend.
func Open(opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendSQLite, "":
		s, err = NewSQLiteDB(opts.DBPath)
	case BackendRedis:
		s, err = NewRedisStore(opts.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
