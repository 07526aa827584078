package voicematch

import (
	"context"

	"github.com/kailas-cloud/voicematch/internal/domain/match"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
)

// --- enrollmentUseCase mock ---

type mockEnrollmentUC struct {
	enrollFn func(ctx context.Context, name string, embeddings [][]float32) (enrollmentuc.Result, error)
	updateFn func(ctx context.Context, name string, embeddings [][]float32, mode enrollmentuc.Mode) (enrollmentuc.Result, error)
}

func (m *mockEnrollmentUC) Enroll(ctx context.Context, name string, embeddings [][]float32) (enrollmentuc.Result, error) {
	return m.enrollFn(ctx, name, embeddings)
}

func (m *mockEnrollmentUC) Update(
	ctx context.Context, name string, embeddings [][]float32, mode enrollmentuc.Mode,
) (enrollmentuc.Result, error) {
	return m.updateFn(ctx, name, embeddings, mode)
}

// --- identificationUseCase mock ---

type mockIdentificationUC struct {
	defaults   identificationuc.Options
	identifyFn func(ctx context.Context, q match.Query, opts identificationuc.Options) (match.Identification, error)
}

func (m *mockIdentificationUC) Identify(
	ctx context.Context, q match.Query, opts identificationuc.Options,
) (match.Identification, error) {
	return m.identifyFn(ctx, q, opts)
}

func (m *mockIdentificationUC) Defaults() identificationuc.Options { return m.defaults }

// --- verificationUseCase mock ---

type mockVerificationUC struct {
	threshold float64
	verifyFn  func(ctx context.Context, q match.Query, name string, threshold float64) (match.Verification, error)
}

func (m *mockVerificationUC) Verify(
	ctx context.Context, q match.Query, name string, threshold float64,
) (match.Verification, error) {
	return m.verifyFn(ctx, q, name, threshold)
}

func (m *mockVerificationUC) DefaultThreshold() float64 { return m.threshold }

// --- speakerUseCase mock ---

type mockSpeakerUC struct {
	getFn    func(ctx context.Context, name string) (domspk.Speaker, error)
	listFn   func(ctx context.Context) ([]domspk.Speaker, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockSpeakerUC) Get(ctx context.Context, name string) (domspk.Speaker, error) {
	return m.getFn(ctx, name)
}

func (m *mockSpeakerUC) List(ctx context.Context) ([]domspk.Speaker, error) {
	return m.listFn(ctx)
}

func (m *mockSpeakerUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
