// Package badger implements db.Store on an embedded BadgerDB for single-process deployments.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// maxConflictRetries bounds retries of a conditional write that lost a transaction race.
const maxConflictRetries = 3

var errClosed = errors.New("badger: database is closed")

// Config configures the embedded store.
type Config struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string
	// InMemory keeps everything in memory (tests, throwaway runs).
	InMemory bool
	// Logger receives badger warnings and errors. Nil discards them.
	Logger *zap.Logger
}

// Store implements db.Store on BadgerDB v4.
type Store struct {
	db     *badgerdb.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the database.
func NewStore(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required for on-disk mode")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	opts := badgerdb.DefaultOptions(cfg.Dir).WithLogger(zapLogger{log.Sugar()})
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(zapLogger{log.Sugar()})
	}

	bdb, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb, logger: log}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: errClosed}
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("badger close failed", zap.Error(err))
	}
}

// WaitForReady returns immediately: an opened embedded database is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return val, nil
}

// GetMulti reads every key inside one consistent read transaction.
func (s *Store) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([][]byte, len(keys))
	err := s.db.View(func(txn *badgerdb.Txn) error {
		for i, key := range keys {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return fmt.Errorf("key %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetNX stores a value only if the key is absent. The existence check and
// the write share one transaction, so of two racing writers only one commits.
func (s *Store) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	k := []byte(key)
	var stored bool
	var err error
	for range maxConflictRetries {
		err = s.db.Update(func(txn *badgerdb.Txn) error {
			stored = false
			_, getErr := txn.Get(k)
			if getErr == nil {
				return nil
			}
			if !errors.Is(getErr, badgerdb.ErrKeyNotFound) {
				return getErr
			}
			stored = true
			return txn.Set(k, value)
		})
		if !errors.Is(err, badgerdb.ErrConflict) {
			break
		}
	}
	if err != nil {
		return false, &db.Error{Op: db.OpSetNX, Err: err}
	}
	return stored, nil
}

// Del deletes a key and reports whether it existed.
func (s *Store) Del(_ context.Context, key string) (bool, error) {
	k := []byte(key)
	var existed bool
	var err error
	for range maxConflictRetries {
		err = s.db.Update(func(txn *badgerdb.Txn) error {
			existed = false
			_, getErr := txn.Get(k)
			if errors.Is(getErr, badgerdb.ErrKeyNotFound) {
				return nil
			}
			if getErr != nil {
				return getErr
			}
			existed = true
			return txn.Delete(k)
		})
		if !errors.Is(err, badgerdb.ErrConflict) {
			break
		}
	}
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Err: err}
	}
	return existed, nil
}

// Incr increments a big-endian uint64 counter. Read and write share one
// transaction; a lost race is retried like SetNX.
func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	k := []byte(key)
	var n uint64
	var err error
	for range maxConflictRetries {
		err = s.db.Update(func(txn *badgerdb.Txn) error {
			n = 0
			item, getErr := txn.Get(k)
			switch {
			case errors.Is(getErr, badgerdb.ErrKeyNotFound):
			case getErr != nil:
				return getErr
			default:
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if len(val) != 8 {
					return fmt.Errorf("key %s does not hold a counter", key)
				}
				n = binary.BigEndian.Uint64(val)
			}
			n++
			return txn.Set(k, binary.BigEndian.AppendUint64(nil, n))
		})
		if !errors.Is(err, badgerdb.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	return int64(n), nil //nolint:gosec // counter starts at 0 and grows by one
}

// ScanPrefix lists keys starting with prefix in byte order.
func (s *Store) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	p := []byte(prefix)
	var keys []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// zapLogger routes badger output to zap, dropping debug and info chatter.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(f string, v ...interface{})   { l.s.Errorf("badger: "+f, v...) }
func (l zapLogger) Warningf(f string, v ...interface{}) { l.s.Warnf("badger: "+f, v...) }
func (zapLogger) Infof(string, ...interface{})          {}
func (zapLogger) Debugf(string, ...interface{})         {}
