package identification

import (
	"context"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// SpeakerLister reads the full enrolled set.
type SpeakerLister interface {
	List(ctx context.Context) ([]domspk.Speaker, error)
}
