package health

import (
	"context"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SpeakerLister reads the enrolled set to prove records decode.
type SpeakerLister interface {
	List(ctx context.Context) ([]domspk.Speaker, error)
}
