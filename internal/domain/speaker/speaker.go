package speaker

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/voicematch/internal/domain"
)

const (
	// MinNameLength is the minimum speaker name length in characters (after trimming).
	MinNameLength = 2
	// MaxNameLength is the maximum speaker name length in characters.
	MaxNameLength = 64
)

// Speaker is the enrolled speaker aggregate (immutable value object).
type Speaker struct {
	id             string
	name           string
	samples        [][]float32
	qualityPercent float64
	registeredAt   int64
	updatedAt      int64
	seq            int64
}

// NormalizeName trims surrounding whitespace and checks the length bounds.
// Names are case-sensitive.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "name is required")
	}
	n := utf8.RuneCountInString(name)
	if n < MinNameLength {
		return "", domain.NewValidationError("name", fmt.Sprintf("name too short (min %d characters)", MinNameLength))
	}
	if n > MaxNameLength {
		return "", domain.NewValidationError("name", fmt.Sprintf("name too long (max %d characters)", MaxNameLength))
	}
	return name, nil
}

// New validates the name and creates a Speaker with a fresh id.
// Samples are copied; embedding shape is checked by the enrollment service.
func New(name string, samples [][]float32, qualityPercent float64, now time.Time) (Speaker, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Speaker{}, err
	}
	if len(samples) == 0 {
		return Speaker{}, domain.NewValidationError("embeddings", "at least one sample is required")
	}

	return Speaker{
		id:             uuid.NewString(),
		name:           name,
		samples:        domain.CloneEmbeddings(samples),
		qualityPercent: qualityPercent,
		registeredAt:   now.UnixMilli(),
	}, nil
}

// Reconstruct creates a Speaker without validation (storage hydration).
func Reconstruct(
	id, name string, samples [][]float32,
	qualityPercent float64, registeredAt, updatedAt int64,
) Speaker {
	return Speaker{
		id:             id,
		name:           name,
		samples:        samples,
		qualityPercent: qualityPercent,
		registeredAt:   registeredAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the speaker identifier (UUID v4).
func (s Speaker) ID() string { return s.id }

// Name returns the unique display name.
func (s Speaker) Name() string { return s.name }

// Samples returns the stored embeddings in enrollment order.
func (s Speaker) Samples() [][]float32 { return s.samples }

// NumSamples returns the number of stored embeddings.
func (s Speaker) NumSamples() int { return len(s.samples) }

// QualityPercent returns the cached enrollment quality.
func (s Speaker) QualityPercent() float64 { return s.qualityPercent }

// RegisteredAt returns the enrollment timestamp (unix millis).
func (s Speaker) RegisteredAt() int64 { return s.registeredAt }

// UpdatedAt returns the last sample update timestamp (unix millis), 0 if never updated.
func (s Speaker) UpdatedAt() int64 { return s.updatedAt }

// Seq returns the store-assigned registration sequence number, 0 if not yet stored.
func (s Speaker) Seq() int64 { return s.seq }

// WithSeq returns a copy carrying the registration sequence number.
func (s Speaker) WithSeq(seq int64) Speaker {
	s.seq = seq
	return s
}

// WithSamples returns a copy with a new sample set and quality, stamped as updated.
func (s Speaker) WithSamples(samples [][]float32, qualityPercent float64, now time.Time) Speaker {
	return Speaker{
		id:             s.id,
		name:           s.name,
		samples:        domain.CloneEmbeddings(samples),
		qualityPercent: qualityPercent,
		registeredAt:   s.registeredAt,
		updatedAt:      now.UnixMilli(),
		seq:            s.seq,
	}
}

// RegisteredBefore is the stable ordering used for listings and tie-breaks:
// lower sequence number first, then earlier timestamp, then name, then id.
// The sequence orders registrations that share a millisecond.
func RegisteredBefore(a, b Speaker) bool {
	if a.seq != b.seq {
		return a.seq < b.seq
	}
	if a.registeredAt != b.registeredAt {
		return a.registeredAt < b.registeredAt
	}
	if a.name != b.name {
		return a.name < b.name
	}
	return a.id < b.id
}
