package voicematch

// Decision is the outcome class of an identification.
type Decision string

// Decision constants.
const (
	DecisionIdentified      Decision = "IDENTIFIED"
	DecisionPossibleMatch   Decision = "POSSIBLE_MATCH"
	DecisionUnknown         Decision = "UNKNOWN"
	DecisionNoVoice         Decision = "NO_VOICE"
	DecisionNoEnrolledUsers Decision = "NO_ENROLLED_USERS"
)

// UpdateMode selects how UpdateSamples combines new samples with stored ones.
type UpdateMode string

// Update modes.
const (
	// ModeAppend keeps stored samples and evicts the oldest beyond the cap.
	ModeAppend UpdateMode = "append"
	// ModeReplace discards stored samples.
	ModeReplace UpdateMode = "replace"
)

// Query is one voice embedding to match. NoVoice marks silence detected upstream.
type Query struct {
	Embedding []float32
	NoVoice   bool
}

// Speaker is an enrolled speaker. Timestamps are unix milliseconds.
// RegistrationSeq orders registrations, including those in the same millisecond.
type Speaker struct {
	ID              string
	Name            string
	NumSamples      int
	QualityPercent  float64
	RegisteredAt    int64
	UpdatedAt       int64
	RegistrationSeq int64
}

// EnrollResult describes the stored sample set after Enroll or UpdateSamples.
type EnrollResult struct {
	ID                   string
	Name                 string
	NumSamples           int
	QualityPercent       float64
	LowQuality           bool
	RecommendedThreshold float64
}

// Candidate is one ranked speaker. Scores are percentages.
type Candidate struct {
	SpeakerID  string
	Name       string
	Average    float64
	Max        float64
	Min        float64
	NumSamples int
}

// Identification is the result of Identify.
type Identification struct {
	Decision   Decision
	Identified bool
	// Name is the best speaker, or a placeholder such as "unknown person".
	Name             string
	SpeakerID        string
	Confidence       float64
	Label            string
	Candidates       []Candidate
	UnknownThreshold float64
	HighThreshold    float64
}

// Verification is the result of Verify.
type Verification struct {
	Accepted  bool
	Name      string
	SpeakerID string
	Score     float64
	MaxScore  float64
	Threshold float64
	NoVoice   bool
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status   string            // "ok", "degraded", "error"
	Checks   map[string]string // component → "ok"/"error"/"skipped"
	Speakers int
}
