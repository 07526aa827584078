package domain

// MatchingConfig holds the matching and enrollment policy the services start from.
// Every threshold is a percentage in [0, 100].
type MatchingConfig struct {
	Dimensions        int
	Metric            string
	UnknownThreshold  float64
	HighThreshold     float64
	VerifyThreshold   float64
	TopN              int
	NoVoiceFloor      float64
	RequiredSamples   int
	MaxSamples        int
	LowQualityPercent float64
}

// DefaultMatchingConfig returns the defaults tuned for 192-dim ECAPA-TDNN speaker embeddings.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		Dimensions:        192,
		Metric:            "cosine",
		UnknownThreshold:  30,
		HighThreshold:     70,
		VerifyThreshold:   70,
		TopN:              5,
		NoVoiceFloor:      0,
		RequiredSamples:   3,
		MaxSamples:        10,
		LowQualityPercent: 50,
	}
}

// DefaultKeyPrefix namespaces every stored key.
const DefaultKeyPrefix = "voicematch:"
