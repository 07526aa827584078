package speaker

import (
	"context"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// Repository defines the storage contract for speaker administration.
type Repository interface {
	Get(ctx context.Context, name string) (domspk.Speaker, error)
	List(ctx context.Context) ([]domspk.Speaker, error)
	Delete(ctx context.Context, name string) error
}

// Locker serializes writes per speaker name.
type Locker interface {
	Lock(key string) (unlock func())
}
