package speaker

import (
	"context"
	"testing"
	"time"

	badgerstore "github.com/kailas-cloud/voicematch/internal/db/badger"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	getMultiFn   func(ctx context.Context, keys []string) ([][]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setNXFn      func(ctx context.Context, key string, value []byte) (bool, error)
	incrFn       func(ctx context.Context, key string) (int64, error)
	delFn        func(ctx context.Context, key string) (bool, error)
	scanPrefixFn func(ctx context.Context, prefix string) ([]string, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.getMultiFn != nil {
		return m.getMultiFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return true, nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func (m *mockStore) Del(ctx context.Context, key string) (bool, error) {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	if m.scanPrefixFn != nil {
		return m.scanPrefixFn(ctx, prefix)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "vm:"), ms
}

// newBadgerRepo wires the repository to a real in-memory badger engine.
func newBadgerRepo(t *testing.T) *Repo {
	t.Helper()
	s, err := badgerstore.NewStore(badgerstore.Config{InMemory: true})
	if err != nil {
		t.Fatalf("badger: %v", err)
	}
	t.Cleanup(s.Close)
	return New(s, "vm:")
}

func testSpeaker(t *testing.T, name string, registeredAt int64) domspk.Speaker {
	t.Helper()
	s, err := domspk.New(name, [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0.95, 0.05, 0}}, 97.5, time.UnixMilli(registeredAt))
	if err != nil {
		t.Fatalf("speaker.New: %v", err)
	}
	return s
}
