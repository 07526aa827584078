package voicematch

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/match"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
)

// --- Enrollment ---

func TestEnroll_ConvertsResult(t *testing.T) {
	c := &Client{enrollSvc: &mockEnrollmentUC{
		enrollFn: func(_ context.Context, name string, embeddings [][]float32) (enrollmentuc.Result, error) {
			if name != "Alice" || len(embeddings) != 3 {
				t.Errorf("got %q with %d samples", name, len(embeddings))
			}
			return enrollmentuc.Result{
				ID: "a1", Name: "Alice", Samples: 3, QualityPercent: 91.5, RecommendedThreshold: 65, Created: true,
			}, nil
		},
	}}

	res, err := c.Enroll(context.Background(), "Alice", make([][]float32, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "a1" || res.NumSamples != 3 || res.QualityPercent != 91.5 || res.RecommendedThreshold != 65 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestEnroll_ErrorKeepsSentinel(t *testing.T) {
	c := &Client{enrollSvc: &mockEnrollmentUC{
		enrollFn: func(_ context.Context, _ string, _ [][]float32) (enrollmentuc.Result, error) {
			return enrollmentuc.Result{}, domain.ErrDuplicateName
		},
	}}

	_, err := c.Enroll(context.Background(), "Alice", nil)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestUpdateSamples_Mode(t *testing.T) {
	var gotMode enrollmentuc.Mode
	c := &Client{enrollSvc: &mockEnrollmentUC{
		updateFn: func(_ context.Context, _ string, _ [][]float32, mode enrollmentuc.Mode) (enrollmentuc.Result, error) {
			gotMode = mode
			return enrollmentuc.Result{Samples: 1}, nil
		},
	}}

	if _, err := c.UpdateSamples(context.Background(), "Alice", make([][]float32, 1), ModeReplace); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMode != enrollmentuc.ModeReplace {
		t.Errorf("mode = %q, want replace", gotMode)
	}

	if _, err := c.UpdateSamples(context.Background(), "Alice", nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMode != enrollmentuc.ModeAppend {
		t.Errorf("empty mode = %q, want append", gotMode)
	}

	if _, err := c.UpdateSamples(context.Background(), "Alice", nil, "merge"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

// --- Identification ---

func TestIdentify_MergesOptionsOverDefaults(t *testing.T) {
	var got identificationuc.Options
	mock := &mockIdentificationUC{
		defaults: identificationuc.Options{UnknownThreshold: 30, HighThreshold: 70, TopN: 5},
		identifyFn: func(_ context.Context, q match.Query, opts identificationuc.Options) (match.Identification, error) {
			got = opts
			if !q.NoVoice {
				t.Error("NoVoice not forwarded")
			}
			return match.Identification{Decision: match.DecisionNoVoice, Name: match.NameNoVoice}, nil
		},
	}
	c := &Client{identSvc: mock}

	res, err := c.Identify(context.Background(), Query{NoVoice: true}, HighThreshold(85), TopN(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnknownThreshold != 30 || got.HighThreshold != 85 || got.TopN != 2 {
		t.Errorf("options = %+v", got)
	}
	if res.Decision != DecisionNoVoice || res.Name != "no voice detected" {
		t.Errorf("result = %+v", res)
	}

	if _, err := c.Identify(context.Background(), Query{NoVoice: true}, UnknownThreshold(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UnknownThreshold != 10 || got.HighThreshold != 70 || got.TopN != 5 {
		t.Errorf("options = %+v", got)
	}
}

func TestIdentify_ConvertsCandidates(t *testing.T) {
	score := match.NewScore("a1", "Alice", 1, similarity.Summary{Mean: 0.8, Max: 0.9, Min: 0.7, Count: 3})
	ranked := []match.Score{score}
	mock := &mockIdentificationUC{
		defaults: identificationuc.Options{UnknownThreshold: 30, HighThreshold: 70, TopN: 5},
		identifyFn: func(_ context.Context, _ match.Query, opts identificationuc.Options) (match.Identification, error) {
			th := match.Thresholds{Unknown: opts.UnknownThreshold, High: opts.HighThreshold}
			return match.NewIdentification(match.DecisionIdentified, ranked, th, opts.TopN), nil
		},
	}
	c := &Client{identSvc: mock}

	res, err := c.Identify(context.Background(), Query{Embedding: []float32{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Identified || res.Name != "Alice" || res.SpeakerID != "a1" {
		t.Errorf("result = %+v", res)
	}
	cand := res.Candidates[0]
	if cand.Average != 80 || cand.Max != 90 || cand.Min != 70 || cand.NumSamples != 3 {
		t.Errorf("candidate = %+v", cand)
	}
	if res.UnknownThreshold != 30 || res.HighThreshold != 70 {
		t.Errorf("thresholds = %v/%v", res.UnknownThreshold, res.HighThreshold)
	}
}

// --- Verification ---

func TestVerify_Threshold(t *testing.T) {
	var gotThreshold float64
	mock := &mockVerificationUC{
		threshold: 70,
		verifyFn: func(_ context.Context, _ match.Query, name string, threshold float64) (match.Verification, error) {
			gotThreshold = threshold
			return match.Verification{Accepted: true, Name: name, Confidence: 88, Threshold: threshold}, nil
		},
	}
	c := &Client{verifySvc: mock}

	res, err := c.Verify(context.Background(), Query{Embedding: []float32{1}}, "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotThreshold != 70 || !res.Accepted || res.Score != 88 {
		t.Errorf("default threshold %v, result %+v", gotThreshold, res)
	}

	if _, err := c.Verify(context.Background(), Query{Embedding: []float32{1}}, "Alice", Threshold(90)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotThreshold != 90 {
		t.Errorf("threshold = %v, want 90", gotThreshold)
	}
}

func TestVerify_NotFound(t *testing.T) {
	c := &Client{verifySvc: &mockVerificationUC{
		verifyFn: func(_ context.Context, _ match.Query, _ string, _ float64) (match.Verification, error) {
			return match.Verification{}, domain.ErrNotFound
		},
	}}
	if _, err := c.Verify(context.Background(), Query{}, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Speakers ---

func TestSpeakers(t *testing.T) {
	c := &Client{speakerSvc: &mockSpeakerUC{
		listFn: func(_ context.Context) ([]domspk.Speaker, error) {
			return []domspk.Speaker{
				domspk.Reconstruct("a1", "Alice", make([][]float32, 3), 95, 100, 200),
			}, nil
		},
	}}

	list, err := c.Speakers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}
	want := Speaker{ID: "a1", Name: "Alice", NumSamples: 3, QualityPercent: 95, RegisteredAt: 100, UpdatedAt: 200}
	if list[0] != want {
		t.Errorf("speaker = %+v, want %+v", list[0], want)
	}
}

func TestSpeakerAndDelete_Errors(t *testing.T) {
	c := &Client{speakerSvc: &mockSpeakerUC{
		getFn: func(_ context.Context, _ string) (domspk.Speaker, error) {
			return domspk.Speaker{}, domain.ErrNotFound
		},
		deleteFn: func(_ context.Context, _ string) error {
			return domain.ErrNotFound
		},
	}}

	if _, err := c.Speaker(context.Background(), "Bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Speaker: expected ErrNotFound, got %v", err)
	}
	if err := c.Delete(context.Background(), "Bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

// --- Health ---

func TestHealth(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status:   healthuc.Degraded,
		Checks:   map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "speakers": healthuc.CheckError},
		Speakers: 0,
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["speakers"] != "error" {
		t.Errorf("health = %+v", h)
	}
}
