package chi

import (
	"math"

	"github.com/kailas-cloud/voicematch/internal/domain/match"
	domspk "github.com/kailas-cloud/voicematch/internal/domain/speaker"
	"github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest           ErrorCode = "bad_request"
	ErrorCodeValidationFailed     ErrorCode = "validation_failed"
	ErrorCodeDimensionMismatch    ErrorCode = "dimension_mismatch"
	ErrorCodeSpeakerAlreadyExists ErrorCode = "speaker_already_exists"
	ErrorCodeSpeakerNotFound      ErrorCode = "speaker_not_found"
	ErrorCodeUnauthorized         ErrorCode = "unauthorized"
	ErrorCodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// EnrollRequest is the body of POST /speakers.
type EnrollRequest struct {
	Name       string      `json:"name"`
	Embeddings [][]float32 `json:"embeddings"`
}

// UpdateSamplesRequest is the body of PUT /speakers/{name}/samples.
type UpdateSamplesRequest struct {
	Embeddings [][]float32 `json:"embeddings"`
	Mode       string      `json:"mode,omitempty"`
}

// EnrollResponse describes the stored sample set after a write.
type EnrollResponse struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	NumSamples           int     `json:"num_samples"`
	QualityPercent       float64 `json:"quality_percent"`
	LowQuality           bool    `json:"low_quality"`
	RecommendedThreshold float64 `json:"recommended_threshold"`
}

// Speaker is the public view of an enrolled speaker. Samples are never exposed.
type Speaker struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	NumSamples      int     `json:"num_samples"`
	QualityPercent  float64 `json:"quality_percent"`
	RegisteredAt    int64   `json:"registered_at"`
	UpdatedAt       int64   `json:"updated_at,omitempty"`
	RegistrationSeq int64   `json:"registration_seq"`
}

// SpeakerListResponse is the body of GET /speakers.
type SpeakerListResponse struct {
	Speakers   []Speaker `json:"speakers"`
	Total      int       `json:"total"`
	HasMore    bool      `json:"has_more"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// IdentifyRequest is the body of POST /identify. Omitted options take server defaults.
type IdentifyRequest struct {
	Embedding        []float32 `json:"embedding"`
	NoVoice          bool      `json:"no_voice"`
	UnknownThreshold *float64  `json:"unknown_threshold,omitempty"`
	HighThreshold    *float64  `json:"high_threshold,omitempty"`
	TopN             *int      `json:"top_n,omitempty"`
}

// Candidate is one ranked speaker in an identification.
type Candidate struct {
	SpeakerID  string  `json:"speaker_id"`
	Name       string  `json:"name"`
	Average    float64 `json:"average_percent"`
	Max        float64 `json:"max_percent"`
	NumSamples int     `json:"num_samples"`
}

// IdentifyResponse is the body of a POST /identify answer.
type IdentifyResponse struct {
	Decision         string      `json:"decision"`
	Identified       bool        `json:"identified"`
	Name             string      `json:"name"`
	SpeakerID        string      `json:"speaker_id,omitempty"`
	Confidence       float64     `json:"confidence"`
	Label            string      `json:"label,omitempty"`
	Candidates       []Candidate `json:"candidates"`
	UnknownThreshold float64     `json:"unknown_threshold"`
	HighThreshold    float64     `json:"high_threshold"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Embedding   []float32 `json:"embedding"`
	ClaimedName string    `json:"claimed_name"`
	NoVoice     bool      `json:"no_voice"`
	Threshold   *float64  `json:"threshold,omitempty"`
}

// VerifyResponse is the body of a POST /verify answer.
type VerifyResponse struct {
	Accepted  bool    `json:"accepted"`
	Name      string  `json:"name"`
	SpeakerID string  `json:"speaker_id"`
	Score     float64 `json:"score_percent"`
	MaxScore  float64 `json:"max_score_percent"`
	Threshold float64 `json:"threshold"`
	NoVoice   bool    `json:"no_voice"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Speakers int               `json:"speakers"`
}

// round2 rounds a percentage to 2 decimals for the wire.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func enrollResultToAPI(r enrollment.Result) EnrollResponse {
	return EnrollResponse{
		ID:                   r.ID,
		Name:                 r.Name,
		NumSamples:           r.Samples,
		QualityPercent:       round2(r.QualityPercent),
		LowQuality:           r.LowQuality,
		RecommendedThreshold: round2(r.RecommendedThreshold),
	}
}

func speakerToAPI(s domspk.Speaker) Speaker {
	return Speaker{
		ID:              s.ID(),
		Name:            s.Name(),
		NumSamples:      s.NumSamples(),
		QualityPercent:  round2(s.QualityPercent()),
		RegisteredAt:    s.RegisteredAt(),
		UpdatedAt:       s.UpdatedAt(),
		RegistrationSeq: s.Seq(),
	}
}

func identificationToAPI(res match.Identification) IdentifyResponse {
	cands := make([]Candidate, len(res.Candidates))
	for i, c := range res.Candidates {
		cands[i] = Candidate{
			SpeakerID:  c.SpeakerID(),
			Name:       c.Name(),
			Average:    round2(c.Percent()),
			Max:        round2(c.MaxPercent()),
			NumSamples: c.Samples(),
		}
	}
	return IdentifyResponse{
		Decision:         res.Decision.String(),
		Identified:       res.Identified,
		Name:             res.Name,
		SpeakerID:        res.SpeakerID,
		Confidence:       round2(res.Confidence),
		Label:            res.Label,
		Candidates:       cands,
		UnknownThreshold: res.Thresholds.Unknown,
		HighThreshold:    res.Thresholds.High,
	}
}

func verificationToAPI(v match.Verification) VerifyResponse {
	return VerifyResponse{
		Accepted:  v.Accepted,
		Name:      v.Name,
		SpeakerID: v.SpeakerID,
		Score:     round2(v.Confidence),
		MaxScore:  round2(v.MaxConfidence),
		Threshold: v.Threshold,
		NoVoice:   v.NoVoice,
	}
}
