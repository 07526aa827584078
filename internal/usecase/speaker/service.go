package speaker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	"github.com/kailas-cloud/voicematch/internal/logger"
	"github.com/kailas-cloud/voicematch/internal/metrics"
)

// Service handles speaker listing, lookup and removal.
type Service struct {
	repo  Repository
	locks Locker
}

// New creates a speaker service. locks must be shared with enrollment.
func New(repo Repository, locks Locker) *Service {
	return &Service{repo: repo, locks: locks}
}

// Get retrieves a speaker by name.
func (s *Service) Get(ctx context.Context, name string) (domspk.Speaker, error) {
	name, err := domspk.NormalizeName(name)
	if err != nil {
		return domspk.Speaker{}, err
	}
	spk, err := s.repo.Get(ctx, name)
	if err != nil {
		return domspk.Speaker{}, fmt.Errorf("get speaker: %w", err)
	}
	return spk, nil
}

// List returns all speakers in registration order.
func (s *Service) List(ctx context.Context) ([]domspk.Speaker, error) {
	speakers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	return speakers, nil
}

// Delete removes a speaker and all of its samples.
func (s *Service) Delete(ctx context.Context, name string) error {
	name, err := domspk.NormalizeName(name)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}

	metrics.SpeakersDeletedTotal.Inc()
	logger.FromContext(ctx).Info("speaker deleted", zap.String("speaker", name))
	return nil
}
