package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides byte-value key operations. Every write is a single-key atomic put.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti returns values in key order; a missing key yields a nil entry.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetNX stores value only if key is absent and reports whether it was stored.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	// Del removes key and reports whether it existed.
	Del(ctx context.Context, key string) (bool, error)
	// Incr atomically adds one to the integer at key (0 when absent) and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// ScanPrefix returns every key starting with prefix, in no particular order.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}
