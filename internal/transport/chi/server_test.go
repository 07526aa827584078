package chi

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	badgerstore "github.com/kailas-cloud/voicematch/internal/db/badger"
	"github.com/kailas-cloud/voicematch/internal/keylock"
	spkrepo "github.com/kailas-cloud/voicematch/internal/repository/speaker"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
	speakeruc "github.com/kailas-cloud/voicematch/internal/usecase/speaker"
	verificationuc "github.com/kailas-cloud/voicematch/internal/usecase/verification"
)

const testDims = 4

var (
	aliceSamples = [][]float32{{1, 0.23, 0, 0}, {1, 0, 0.23, 0}, {1, 0, 0, 0.23}}
	bobSamples   = [][]float32{{0, 1, 0, 0.23}, {0, 1, 0.23, 0}, {0, 1, 0, -0.23}}
	nearAlice    = []float32{1, 0.05, 0.05, 0.05}
)

// --- Helpers ---

func newTestHandler(t *testing.T, apiKeys ...string) http.Handler {
	t.Helper()
	store, err := badgerstore.NewStore(badgerstore.Config{InMemory: true})
	if err != nil {
		t.Fatalf("badger: %v", err)
	}
	t.Cleanup(store.Close)

	repo := spkrepo.New(store, "test:")
	locks := keylock.New()
	srv := NewServer(
		enrollmentuc.New(repo, locks, testDims),
		identificationuc.New(repo, testDims),
		verificationuc.New(repo, testDims),
		speakeruc.New(repo, locks),
		healthuc.New(store, repo),
		zap.NewNop(),
	).WithPagination(2, 10)

	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware(apiKeys))
	srv.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) ErrorResponse {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decode[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code = %s, want %s", resp.Code, code)
	}
	return resp
}

func enroll(t *testing.T, h http.Handler, name string, samples [][]float32) EnrollResponse {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/speakers", EnrollRequest{Name: name, Embeddings: samples})
	if rr.Code != http.StatusCreated {
		t.Fatalf("enroll %s: status %d body %s", name, rr.Code, rr.Body.String())
	}
	return decode[EnrollResponse](t, rr)
}

func isRounded(v float64) bool {
	return math.Round(v*100)/100 == v
}

// --- Tests ---

func TestEnroll_Created(t *testing.T) {
	h := newTestHandler(t)
	resp := enroll(t, h, "Alice", aliceSamples)

	if resp.ID == "" || resp.Name != "Alice" || resp.NumSamples != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.QualityPercent < 94 || resp.QualityPercent > 96 || !isRounded(resp.QualityPercent) {
		t.Errorf("quality = %v", resp.QualityPercent)
	}
	if resp.LowQuality {
		t.Error("consistent samples flagged as low quality")
	}
}

func TestEnroll_Duplicate409(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Alice", aliceSamples)

	rr := do(t, h, http.MethodPost, "/speakers", EnrollRequest{Name: "Alice", Embeddings: bobSamples})
	expectError(t, rr, http.StatusConflict, ErrorCodeSpeakerAlreadyExists)
}

func TestEnroll_ValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/speakers", EnrollRequest{Name: "Alice", Embeddings: aliceSamples[:2]})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	rr = do(t, h, http.MethodPost, "/speakers", EnrollRequest{Name: "A", Embeddings: aliceSamples})
	resp := expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
	if resp.Field != "name" {
		t.Errorf("field = %q, want name", resp.Field)
	}

	bad := [][]float32{{1, 0, 0, 0}, {1, 0, 0}, {0, 1, 0, 0}}
	rr = do(t, h, http.MethodPost, "/speakers", EnrollRequest{Name: "Alice", Embeddings: bad})
	resp = expectError(t, rr, http.StatusBadRequest, ErrorCodeDimensionMismatch)
	if resp.Field != "embeddings[1]" {
		t.Errorf("field = %q, want embeddings[1]", resp.Field)
	}
}

func TestEnroll_BadBody(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/speakers", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestAliceBobFlow(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Alice", aliceSamples)
	enroll(t, h, "Bob", bobSamples)

	rr := do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: nearAlice})
	if rr.Code != http.StatusOK {
		t.Fatalf("identify: %d %s", rr.Code, rr.Body.String())
	}
	id := decode[IdentifyResponse](t, rr)
	if id.Decision != "IDENTIFIED" || id.Name != "Alice" || !id.Identified {
		t.Errorf("identify near alice: %+v", id)
	}
	if id.Confidence < 70 || !isRounded(id.Confidence) {
		t.Errorf("confidence = %v", id.Confidence)
	}
	if len(id.Candidates) != 2 || id.Candidates[0].Name != "Alice" {
		t.Errorf("candidates = %+v", id.Candidates)
	}
	if id.UnknownThreshold != 30 || id.HighThreshold != 70 {
		t.Errorf("thresholds = %v/%v", id.UnknownThreshold, id.HighThreshold)
	}

	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: []float32{0, 0, 0, 1}})
	if got := decode[IdentifyResponse](t, rr); got.Decision != "UNKNOWN" || got.Name != "unknown person" {
		t.Errorf("unlike anyone: %+v", got)
	}

	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{NoVoice: true})
	if got := decode[IdentifyResponse](t, rr); got.Decision != "NO_VOICE" {
		t.Errorf("no voice: %+v", got)
	}

	rr = do(t, h, http.MethodPost, "/verify", VerifyRequest{Embedding: nearAlice, ClaimedName: "Alice"})
	if v := decode[VerifyResponse](t, rr); !v.Accepted || v.Threshold != 70 {
		t.Errorf("verify alice: %+v", v)
	}
	rr = do(t, h, http.MethodPost, "/verify", VerifyRequest{Embedding: nearAlice, ClaimedName: "Bob"})
	if v := decode[VerifyResponse](t, rr); v.Accepted {
		t.Errorf("verify as bob: %+v", v)
	}

	rr = do(t, h, http.MethodDelete, "/speakers/Alice", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	rr = do(t, h, http.MethodDelete, "/speakers/Alice", nil)
	expectError(t, rr, http.StatusNotFound, ErrorCodeSpeakerNotFound)
	rr = do(t, h, http.MethodGet, "/speakers/Alice", nil)
	expectError(t, rr, http.StatusNotFound, ErrorCodeSpeakerNotFound)

	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: nearAlice})
	id = decode[IdentifyResponse](t, rr)
	if len(id.Candidates) != 1 || id.Candidates[0].Name != "Bob" || id.Identified {
		t.Errorf("after delete: %+v", id)
	}
}

func TestIdentify_EmptyStore(t *testing.T) {
	h := newTestHandler(t)
	rr := do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: nearAlice})
	if got := decode[IdentifyResponse](t, rr); got.Decision != "NO_ENROLLED_USERS" || got.Name != "no users registered" {
		t.Errorf("empty store: %+v", got)
	}
}

func TestIdentify_Options(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Alice", aliceSamples)

	high, low := 99.5, 10.0
	rr := do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: nearAlice, HighThreshold: &high})
	if got := decode[IdentifyResponse](t, rr); got.Decision != "POSSIBLE_MATCH" || got.Label != "medium confidence" {
		t.Errorf("raised high threshold: %+v", got)
	}

	rr = do(t, h, http.MethodPost, "/identify",
		IdentifyRequest{Embedding: nearAlice, UnknownThreshold: &high, HighThreshold: &low})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	zero := 0
	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: nearAlice, TopN: &zero})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: []float32{1, 0}})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeDimensionMismatch)

	rr = do(t, h, http.MethodPost, "/identify", IdentifyRequest{Embedding: []float32{1, 0}, NoVoice: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("no voice with short embedding: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[IdentifyResponse](t, rr); got.Decision != "NO_VOICE" || len(got.Candidates) != 0 {
		t.Errorf("no voice with short embedding: %+v", got)
	}
}

func TestVerify_Errors(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Alice", aliceSamples)

	rr := do(t, h, http.MethodPost, "/verify", VerifyRequest{Embedding: nearAlice, ClaimedName: "Nobody"})
	expectError(t, rr, http.StatusNotFound, ErrorCodeSpeakerNotFound)

	th := 120.0
	rr = do(t, h, http.MethodPost, "/verify", VerifyRequest{Embedding: nearAlice, ClaimedName: "Alice", Threshold: &th})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	rr = do(t, h, http.MethodPost, "/verify", VerifyRequest{ClaimedName: "Alice", NoVoice: true})
	if v := decode[VerifyResponse](t, rr); v.Accepted || v.Score != 0 || !v.NoVoice {
		t.Errorf("no voice verify: %+v", v)
	}
}

func TestUpdateSamples(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Alice", aliceSamples)

	rr := do(t, h, http.MethodPut, "/speakers/Alice/samples",
		UpdateSamplesRequest{Embeddings: [][]float32{nearAlice}, Mode: "append"})
	if rr.Code != http.StatusOK {
		t.Fatalf("append: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[EnrollResponse](t, rr); got.NumSamples != 4 {
		t.Errorf("num_samples = %d, want 4", got.NumSamples)
	}

	rr = do(t, h, http.MethodPut, "/speakers/Alice/samples",
		UpdateSamplesRequest{Embeddings: [][]float32{nearAlice}, Mode: "replace"})
	got := decode[EnrollResponse](t, rr)
	if got.NumSamples != 1 || got.QualityPercent != 100 {
		t.Errorf("replace: %+v", got)
	}

	rr = do(t, h, http.MethodPut, "/speakers/Alice/samples",
		UpdateSamplesRequest{Embeddings: [][]float32{nearAlice}, Mode: "merge"})
	expectError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	rr = do(t, h, http.MethodPut, "/speakers/Nobody/samples",
		UpdateSamplesRequest{Embeddings: [][]float32{nearAlice}})
	expectError(t, rr, http.StatusNotFound, ErrorCodeSpeakerNotFound)
}

func TestListSpeakers_Pagination(t *testing.T) {
	h := newTestHandler(t)
	enroll(t, h, "Ann", aliceSamples)
	enroll(t, h, "Ben", bobSamples)
	enroll(t, h, "Cai", aliceSamples)

	rr := do(t, h, http.MethodGet, "/speakers", nil)
	page := decode[SpeakerListResponse](t, rr)
	if page.Total != 3 || len(page.Speakers) != 2 || !page.HasMore {
		t.Fatalf("first page: %+v", page)
	}
	if page.NextCursor == nil || *page.NextCursor != "Ben" {
		t.Fatalf("next cursor = %v", page.NextCursor)
	}

	rr = do(t, h, http.MethodGet, "/speakers?cursor=Ben", nil)
	page = decode[SpeakerListResponse](t, rr)
	if len(page.Speakers) != 1 || page.Speakers[0].Name != "Cai" || page.HasMore || page.NextCursor != nil {
		t.Errorf("second page: %+v", page)
	}

	rr = do(t, h, http.MethodGet, "/speakers?limit=10", nil)
	page = decode[SpeakerListResponse](t, rr)
	if len(page.Speakers) != 3 || page.Speakers[0].NumSamples != 3 {
		t.Errorf("full page: %+v", page)
	}
	for i, s := range page.Speakers {
		if s.RegistrationSeq != int64(i+1) {
			t.Errorf("%s registration_seq = %d, want %d", s.Name, s.RegistrationSeq, i+1)
		}
	}

	rr = do(t, h, http.MethodGet, "/speakers?limit=abc", nil)
	expectError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestGetSpeaker(t *testing.T) {
	h := newTestHandler(t)
	created := enroll(t, h, "Alice", aliceSamples)

	rr := do(t, h, http.MethodGet, "/speakers/Alice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	spk := decode[Speaker](t, rr)
	if spk.ID != created.ID || spk.NumSamples != 3 || spk.RegisteredAt == 0 {
		t.Errorf("speaker = %+v", spk)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, "secret")
	rr := do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestAuth_ProtectsAPI(t *testing.T) {
	h := newTestHandler(t, "secret")
	rr := do(t, h, http.MethodGet, "/speakers", nil)
	expectError(t, rr, http.StatusUnauthorized, ErrorCodeUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/speakers", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authorized list: %d", rr.Code)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{94.98123, 94.98},
		{70.006, 70.01},
		{100, 100},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
