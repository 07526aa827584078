package speaker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/voicematch/internal/db"
	"github.com/kailas-cloud/voicematch/internal/domain"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// store is the consumer interface for speakers (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) (bool, error)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Repo implements the usecase speaker repositories. One record per speaker
// at {prefix}speaker:{name}, so every write replaces the whole sample set atomically.
type Repo struct {
	store  store
	prefix string
}

// New creates a speaker repository. An empty prefix falls back to domain.DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Create stores a new speaker. SET NX guarantees a name is created once across processes.
// Each create draws the next registration sequence number, so registrations in the
// same millisecond still rank in order. A rejected duplicate leaves a gap in the sequence.
func (r *Repo) Create(ctx context.Context, s domspk.Speaker) error {
	seq, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return fmt.Errorf("create speaker %s: next sequence: %w", s.Name(), err)
	}
	s = s.WithSeq(seq)

	data, err := encode(s)
	if err != nil {
		return err
	}
	ok, err := r.store.SetNX(ctx, r.key(s.Name()), data)
	if err != nil {
		return fmt.Errorf("create speaker %s: %w", s.Name(), err)
	}
	if !ok {
		return domain.ErrDuplicateName
	}
	return nil
}

// Save overwrites an existing speaker record.
func (r *Repo) Save(ctx context.Context, s domspk.Speaker) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(s.Name()), data); err != nil {
		return fmt.Errorf("save speaker %s: %w", s.Name(), err)
	}
	return nil
}

// Get retrieves a speaker by exact name.
func (r *Repo) Get(ctx context.Context, name string) (domspk.Speaker, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domspk.Speaker{}, domain.ErrNotFound
		}
		return domspk.Speaker{}, fmt.Errorf("get speaker %s: %w", name, err)
	}
	return decode(data)
}

// List returns every speaker in registration order.
// Keys that vanish between SCAN and GET are skipped.
func (r *Repo) List(ctx context.Context) ([]domspk.Speaker, error) {
	keys, err := r.store.ScanPrefix(ctx, r.keyPrefix())
	if err != nil {
		return nil, fmt.Errorf("scan speakers: %w", err)
	}
	if len(keys) == 0 {
		return []domspk.Speaker{}, nil
	}

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get speakers: %w", err)
	}

	speakers := make([]domspk.Speaker, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		s, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("parse speaker %s: %w", keys[i], err)
		}
		speakers = append(speakers, s)
	}

	sort.Slice(speakers, func(i, j int) bool {
		return domspk.RegisteredBefore(speakers[i], speakers[j])
	})
	return speakers, nil
}

// Delete removes a speaker and all its samples.
func (r *Repo) Delete(ctx context.Context, name string) error {
	deleted, err := r.store.Del(ctx, r.key(name))
	if err != nil {
		return fmt.Errorf("delete speaker %s: %w", name, err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// Valkey key patterns: {prefix}speaker:{name}, {prefix}seq:speaker

func (r *Repo) keyPrefix() string {
	return r.prefix + "speaker:"
}

func (r *Repo) key(name string) string {
	return r.keyPrefix() + name
}

func (r *Repo) seqKey() string {
	return r.prefix + "seq:speaker"
}
