package voicematch

import (
	"context"
	"fmt"
	"time"

	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
)

// Enroll registers a new speaker from exactly the required number of samples.
// It fails with ErrDuplicateName if the name is taken.
func (c *Client) Enroll(ctx context.Context, name string, embeddings [][]float32) (res EnrollResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("enroll", start, err, "speaker", name) }()

	r, err := c.enrollSvc.Enroll(ctx, name, embeddings)
	if err != nil {
		return EnrollResult{}, fmt.Errorf("enroll: %w", err)
	}
	return enrollResultFromDomain(r), nil
}

// UpdateSamples appends to or replaces the samples of an enrolled speaker.
func (c *Client) UpdateSamples(
	ctx context.Context, name string, embeddings [][]float32, mode UpdateMode,
) (res EnrollResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_samples", start, err, "speaker", name) }()

	m, err := enrollmentuc.ParseMode(string(mode))
	if err != nil {
		return EnrollResult{}, fmt.Errorf("update samples: %w", err)
	}
	r, err := c.enrollSvc.Update(ctx, name, embeddings, m)
	if err != nil {
		return EnrollResult{}, fmt.Errorf("update samples: %w", err)
	}
	return enrollResultFromDomain(r), nil
}

// Speakers lists all enrolled speakers in registration order.
func (c *Client) Speakers(ctx context.Context) (out []Speaker, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_speakers", start, err) }()

	speakers, err := c.speakerSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	out = make([]Speaker, len(speakers))
	for i, s := range speakers {
		out[i] = speakerFromDomain(s)
	}
	return out, nil
}

// Speaker returns one enrolled speaker. It fails with ErrNotFound if absent.
func (c *Client) Speaker(ctx context.Context, name string) (spk Speaker, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_speaker", start, err) }()

	s, err := c.speakerSvc.Get(ctx, name)
	if err != nil {
		return Speaker{}, fmt.Errorf("get speaker: %w", err)
	}
	return speakerFromDomain(s), nil
}

// Delete removes a speaker. It fails with ErrNotFound if absent.
func (c *Client) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_speaker", start, err, "speaker", name) }()

	if err = c.speakerSvc.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	return nil
}

func enrollResultFromDomain(r enrollmentuc.Result) EnrollResult {
	return EnrollResult{
		ID:                   r.ID,
		Name:                 r.Name,
		NumSamples:           r.Samples,
		QualityPercent:       r.QualityPercent,
		LowQuality:           r.LowQuality,
		RecommendedThreshold: r.RecommendedThreshold,
	}
}

func speakerFromDomain(s domspk.Speaker) Speaker {
	return Speaker{
		ID:              s.ID(),
		Name:            s.Name(),
		NumSamples:      s.NumSamples(),
		QualityPercent:  s.QualityPercent(),
		RegisteredAt:    s.RegisteredAt(),
		UpdatedAt:       s.UpdatedAt(),
		RegistrationSeq: s.Seq(),
	}
}
