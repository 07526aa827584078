package enrollment

import (
	"context"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// Repository defines the storage contract for enrollment.
type Repository interface {
	Create(ctx context.Context, s domspk.Speaker) error
	Save(ctx context.Context, s domspk.Speaker) error
	Get(ctx context.Context, name string) (domspk.Speaker, error)
}

// Locker serializes writes per speaker name.
type Locker interface {
	Lock(key string) (unlock func())
}
