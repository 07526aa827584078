package voicematch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/voicematch/internal/domain/match"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
)

// Identify finds the best enrolled speaker for q, or reports that none applies.
func (c *Client) Identify(ctx context.Context, q Query, opts ...IdentifyOption) (res Identification, err error) {
	start := time.Now()
	defer func() { c.obs.observe("identify", start, err, "decision", string(res.Decision)) }()

	var p identifyParams
	for _, o := range opts {
		o(&p)
	}
	o := c.identSvc.Defaults()
	if p.unknown != nil {
		o.UnknownThreshold = *p.unknown
	}
	if p.high != nil {
		o.HighThreshold = *p.high
	}
	if p.topN != nil {
		o.TopN = *p.topN
	}

	r, err := c.identSvc.Identify(ctx, match.Query{Embedding: q.Embedding, NoVoice: q.NoVoice}, o)
	if err != nil {
		return Identification{}, fmt.Errorf("identify: %w", err)
	}
	return identificationFromDomain(r), nil
}

// Verify checks q against the claimed speaker. It fails with ErrNotFound if the name is not enrolled.
func (c *Client) Verify(ctx context.Context, q Query, name string, opts ...VerifyOption) (res Verification, err error) {
	start := time.Now()
	defer func() { c.obs.observe("verify", start, err, "speaker", name, "accepted", res.Accepted) }()

	var p verifyParams
	for _, o := range opts {
		o(&p)
	}
	threshold := c.verifySvc.DefaultThreshold()
	if p.threshold != nil {
		threshold = *p.threshold
	}

	v, err := c.verifySvc.Verify(ctx, match.Query{Embedding: q.Embedding, NoVoice: q.NoVoice}, name, threshold)
	if err != nil {
		return Verification{}, fmt.Errorf("verify: %w", err)
	}
	return Verification{
		Accepted:  v.Accepted,
		Name:      v.Name,
		SpeakerID: v.SpeakerID,
		Score:     v.Confidence,
		MaxScore:  v.MaxConfidence,
		Threshold: v.Threshold,
		NoVoice:   v.NoVoice,
	}, nil
}

func identificationFromDomain(r match.Identification) Identification {
	cands := make([]Candidate, len(r.Candidates))
	for i, s := range r.Candidates {
		cands[i] = Candidate{
			SpeakerID:  s.SpeakerID(),
			Name:       s.Name(),
			Average:    s.Percent(),
			Max:        s.MaxPercent(),
			Min:        similarity.Percent(s.Min()),
			NumSamples: s.Samples(),
		}
	}
	return Identification{
		Decision:         Decision(r.Decision),
		Identified:       r.Identified,
		Name:             r.Name,
		SpeakerID:        r.SpeakerID,
		Confidence:       r.Confidence,
		Label:            r.Label,
		Candidates:       cands,
		UnknownThreshold: r.Thresholds.Unknown,
		HighThreshold:    r.Thresholds.High,
	}
}
