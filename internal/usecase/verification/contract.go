package verification

import (
	"context"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// SpeakerGetter looks up the claimed speaker.
type SpeakerGetter interface {
	Get(ctx context.Context, name string) (domspk.Speaker, error)
}
