// Package match holds the scoring and decision types produced by identification and verification.
package match

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
)

// Decision is the identification outcome class.
type Decision string

const (
	// DecisionIdentified means the best score reached the high threshold.
	DecisionIdentified Decision = "IDENTIFIED"
	// DecisionPossibleMatch means the best score is between the unknown and high thresholds.
	DecisionPossibleMatch Decision = "POSSIBLE_MATCH"
	// DecisionUnknown means no speaker scored at least the unknown threshold.
	DecisionUnknown Decision = "UNKNOWN"
	// DecisionNoVoice means the query carried no usable voice.
	DecisionNoVoice Decision = "NO_VOICE"
	// DecisionNoEnrolledUsers means the store is empty.
	DecisionNoEnrolledUsers Decision = "NO_ENROLLED_USERS"
)

// Sentinel display names for decisions that carry no speaker.
const (
	NameNoVoice = "no voice detected"
	NameUnknown = "unknown person"
	NameNoUsers = "no users registered"
)

// Qualitative labels for named decisions.
const (
	LabelHighConf   = "high confidence"
	LabelMediumConf = "medium confidence"
)

// Default decision thresholds in percent.
const (
	DefaultUnknownPct = 30
	DefaultHighPct    = 70
)

// String returns the decision name.
func (d Decision) String() string { return string(d) }

// Identified reports whether the decision names a speaker.
func (d Decision) Identified() bool {
	return d == DecisionIdentified || d == DecisionPossibleMatch
}

// Label is the qualitative confidence shown alongside a named decision.
func (d Decision) Label() string {
	switch d {
	case DecisionIdentified:
		return LabelHighConf
	case DecisionPossibleMatch:
		return LabelMediumConf
	default:
		return ""
	}
}

// Query is one voice sample: the extractor's embedding plus its no-voice flag.
// Embedding may be empty when NoVoice is set.
type Query struct {
	Embedding []float32
	NoVoice   bool
}

// Thresholds are the two decision boundaries in percent.
type Thresholds struct {
	Unknown float64
	High    float64
}

// DefaultThresholds returns 30/70.
func DefaultThresholds() Thresholds {
	return Thresholds{Unknown: DefaultUnknownPct, High: DefaultHighPct}
}

// Validate enforces 0 <= Unknown <= High <= 100.
func (t Thresholds) Validate() error {
	if t.Unknown < 0 || t.Unknown > 100 {
		return domain.NewValidationError("unknown_threshold", "must be within [0, 100]")
	}
	if t.High < 0 || t.High > 100 {
		return domain.NewValidationError("high_threshold", "must be within [0, 100]")
	}
	if t.Unknown > t.High {
		return domain.NewValidationError("unknown_threshold",
			fmt.Sprintf("must not exceed high_threshold (%g > %g)", t.Unknown, t.High))
	}
	return nil
}

// Classify maps a best percent to a decision. Both boundaries are inclusive upward.
// noVoiceFloor > 0 treats scores below it as silence; the noVoice flag always wins.
func Classify(best float64, t Thresholds, noVoice bool, noVoiceFloor float64) Decision {
	switch {
	case noVoice:
		return DecisionNoVoice
	case noVoiceFloor > 0 && best < noVoiceFloor:
		return DecisionNoVoice
	case best < t.Unknown:
		return DecisionUnknown
	case best < t.High:
		return DecisionPossibleMatch
	default:
		return DecisionIdentified
	}
}

// Score is the aggregate similarity of one query against one enrolled speaker.
type Score struct {
	speakerID    string
	name         string
	registeredAt int64
	seq          int64
	summary      similarity.Summary
}

// NewScore creates a Score.
func NewScore(speakerID, name string, registeredAt int64, summary similarity.Summary) Score {
	return Score{speakerID: speakerID, name: name, registeredAt: registeredAt, summary: summary}
}

// WithSeq returns a copy carrying the speaker's registration sequence number.
func (s Score) WithSeq(seq int64) Score {
	s.seq = seq
	return s
}

// SpeakerID returns the scored speaker id.
func (s Score) SpeakerID() string { return s.speakerID }

// Name returns the scored speaker name.
func (s Score) Name() string { return s.name }

// RegisteredAt returns the speaker registration timestamp (unix millis).
func (s Score) RegisteredAt() int64 { return s.registeredAt }

// Average returns the mean native similarity.
func (s Score) Average() float64 { return s.summary.Mean }

// Max returns the best single-sample similarity.
func (s Score) Max() float64 { return s.summary.Max }

// Min returns the worst single-sample similarity.
func (s Score) Min() float64 { return s.summary.Min }

// Samples returns how many stored samples were scored.
func (s Score) Samples() int { return s.summary.Count }

// Percent returns Average as a percentage in [0, 100].
func (s Score) Percent() float64 { return similarity.Percent(s.summary.Mean) }

// MaxPercent returns Max as a percentage in [0, 100].
func (s Score) MaxPercent() float64 { return similarity.Percent(s.summary.Max) }

// Rank sorts scores best first. Equal averages go to the earlier registration
// (sequence number, then timestamp), then name, then id, so the order is total and repeatable.
func Rank(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.summary.Mean != b.summary.Mean {
			return a.summary.Mean > b.summary.Mean
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		if a.registeredAt != b.registeredAt {
			return a.registeredAt < b.registeredAt
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.speakerID < b.speakerID
	})
}

// Identification is the outcome of an open-set identify call.
type Identification struct {
	Decision   Decision
	Identified bool
	// Name is the best speaker name, or a sentinel when no speaker applies.
	Name       string
	SpeakerID  string
	Confidence float64
	Label      string
	Candidates []Score
	Thresholds Thresholds
}

// NewIdentification assembles a result from ranked candidates. Candidates are kept up to topN.
func NewIdentification(d Decision, ranked []Score, t Thresholds, topN int) Identification {
	res := Identification{
		Decision:   d,
		Identified: d.Identified(),
		Label:      d.Label(),
		Thresholds: t,
	}
	if len(ranked) > 0 {
		res.Confidence = ranked[0].Percent()
	}
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	res.Candidates = ranked

	switch {
	case d.Identified() && len(ranked) == 0:
		res.Decision, res.Identified, res.Label = DecisionUnknown, false, ""
		res.Name = NameUnknown
	case d.Identified():
		res.Name = ranked[0].Name()
		res.SpeakerID = ranked[0].SpeakerID()
	case d == DecisionNoVoice:
		res.Name = NameNoVoice
		res.Confidence = 0
	case d == DecisionNoEnrolledUsers:
		res.Name = NameNoUsers
	default:
		res.Name = NameUnknown
	}
	return res
}

// Verification is the outcome of a closed-set verify call.
type Verification struct {
	Accepted      bool
	Name          string
	SpeakerID     string
	Confidence    float64
	MaxConfidence float64
	Threshold     float64
	NoVoice       bool
}
