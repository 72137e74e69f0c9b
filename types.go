// Package agentauth implements the AgentAuth verification engine: challenge
// issuance, answer verification, model fingerprinting, timing analysis, and
// bearer token issuance for clients proving they are AI agents.
package agentauth

import "encoding/json"

// Difficulty controls data size, operation count, and step count for a
// generated challenge.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
	DifficultyAdversarial Difficulty = "adversarial"
)

// Dimension is one of the four capability axes a driver exercises.
type Dimension string

const (
	DimensionReasoning Dimension = "reasoning"
	DimensionExecution Dimension = "execution"
	DimensionMemory    Dimension = "memory"
	DimensionAmbiguity Dimension = "ambiguity"
)

// CapabilityScore is the five-dimensional capability vector returned on a
// successful solve, each value clamped to [0,1].
type CapabilityScore struct {
	Reasoning   float64 `json:"reasoning"`
	Execution   float64 `json:"execution"`
	Autonomy    float64 `json:"autonomy"`
	Speed       float64 `json:"speed"`
	Consistency float64 `json:"consistency"`
}

// ChallengePayload is what a driver hands back from Generate. Context is
// opaque to everyone except the driver that produced it.
type ChallengePayload struct {
	Type         string          `json:"type"`
	Instructions string          `json:"instructions"`
	Data         string          `json:"data"`
	Steps        int             `json:"steps"`
	Context      json.RawMessage `json:"context,omitempty"`
}

// ChallengeRecord is the full stored record (§3 of the spec). It is never
// serialized to a client directly -- PublicChallenge strips the private
// fields.
type ChallengeRecord struct {
	ID              string           `json:"id"`
	SessionToken    string           `json:"session_token"`
	ChallengeType   string           `json:"challenge_type"`
	Payload         ChallengePayload `json:"payload"`
	Difficulty      Difficulty       `json:"difficulty"`
	Dimensions      []Dimension      `json:"dimensions"`
	CreatedAtSec    int64            `json:"created_at_sec"`
	CreatedAtMs     int64            `json:"created_at_ms"`
	ExpiresAtSec    int64            `json:"expires_at_sec"`
	AnswerHash      string           `json:"answer_hash"`
	Attempts        int              `json:"attempts"`
	MaxAttempts     int              `json:"max_attempts"`
	InjectedCanary  []Canary         `json:"injected_canaries,omitempty"`
}

// PublicChallenge is what retrieve() returns: the record with Context
// stripped from the payload and SessionToken removed entirely.
type PublicChallenge struct {
	ID           string           `json:"id"`
	Payload      ChallengePayload `json:"payload"`
	Difficulty   Difficulty       `json:"difficulty"`
	Dimensions   []Dimension      `json:"dimensions"`
	CreatedAtSec int64            `json:"created_at_sec"`
	ExpiresAtSec int64            `json:"expires_at_sec"`
}

// InjectionMethod controls where a canary's prompt is spliced into the
// challenge instructions.
type InjectionMethod string

const (
	InjectionInline   InjectionMethod = "inline"
	InjectionPrefix   InjectionMethod = "prefix"
	InjectionSuffix   InjectionMethod = "suffix"
	InjectionEmbedded InjectionMethod = "embedded"
)

// Distribution is a Gaussian (mean, stddev) used by statistical canaries.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// CanaryAnalysis is a tagged variant: exactly one of Expected, Patterns, or
// Distributions is populated, selected by Type.
type CanaryAnalysis struct {
	Type          string                  `json:"type"` // exact_match | pattern | statistical
	Expected      map[string]string       `json:"expected,omitempty"`
	Patterns      map[string]string       `json:"patterns,omitempty"`
	Distributions map[string]Distribution `json:"distributions,omitempty"`
}

// Canary is a small side-prompt injected into a challenge's instructions to
// discriminate between model families.
type Canary struct {
	ID               string          `json:"id"`
	Prompt           string          `json:"prompt"`
	InjectionMethod  InjectionMethod `json:"injection_method"`
	Analysis         CanaryAnalysis  `json:"analysis"`
	ConfidenceWeight float64         `json:"confidence_weight"`
}

// CanaryEvidence is one canary's extracted signal after a response arrives.
type CanaryEvidence struct {
	CanaryID               string  `json:"canary_id"`
	Observed               string  `json:"observed"`
	Expected               string  `json:"expected"`
	Match                  bool    `json:"match"`
	ConfidenceContribution float64 `json:"confidence_contribution"`
}

// ModelAlternative is a runner-up family from the classifier.
type ModelAlternative struct {
	Family     string  `json:"family"`
	Confidence float64 `json:"confidence"`
}

// ModelIdentification is the PoMI classifier's verdict.
type ModelIdentification struct {
	Family       string             `json:"family"`
	Confidence   float64            `json:"confidence"`
	Evidence     []CanaryEvidence   `json:"evidence"`
	Alternatives []ModelAlternative `json:"alternatives"`
}

// TimingZone buckets elapsed response time into an acceptance/penalty class.
type TimingZone string

const (
	ZoneTooFast    TimingZone = "too_fast"
	ZoneAI         TimingZone = "ai_zone"
	ZoneSuspicious TimingZone = "suspicious"
	ZoneHuman      TimingZone = "human"
	ZoneTimeout    TimingZone = "timeout"
)

// TimingBaseline is the per (challenge_type, difficulty) timing profile.
type TimingBaseline struct {
	ChallengeType string     `json:"challenge_type"`
	Difficulty    Difficulty `json:"difficulty"`
	MeanMs        float64    `json:"mean_ms"`
	StdMs         float64    `json:"std_ms"`
	TooFastMs     float64    `json:"too_fast_ms"`
	AILowerMs     float64    `json:"ai_lower_ms"`
	AIUpperMs     float64    `json:"ai_upper_ms"`
	HumanMs       float64    `json:"human_ms"`
	TimeoutMs     float64    `json:"timeout_ms"`
}

// TimingAnalysis is the per-solve timing verdict.
type TimingAnalysis struct {
	ElapsedMs  float64    `json:"elapsed_ms"`
	Zone       TimingZone `json:"zone"`
	Confidence float64    `json:"confidence"`
	ZScore     float64    `json:"z_score"`
	Penalty    float64    `json:"penalty"`
	Details    string     `json:"details"`
}

// PatternAnalysis is the per-step timing pattern verdict.
type PatternAnalysis struct {
	VarianceCoefficient float64 `json:"variance_coefficient"`
	Trend               string  `json:"trend"`   // constant | increasing | decreasing | variable
	RoundNumberRatio    float64 `json:"round_number_ratio"`
	Verdict             string  `json:"verdict"` // natural | artificial | inconclusive
}

// SessionAnomaly is one anomaly surfaced by the per-session timing tracker.
type SessionAnomaly struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low | medium | high
}

// FailureReason enumerates the expected VerifyResult.Reason values (§7).
type FailureReason string

const (
	FailExpired     FailureReason = "expired"
	FailInvalidHMAC FailureReason = "invalid_hmac"
	FailWrongAnswer FailureReason = "wrong_answer"
	FailTooFast     FailureReason = "too_fast"
	FailTimeout     FailureReason = "timeout"
	FailTooSlow     FailureReason = "too_slow"
	FailAlreadyUsed FailureReason = "already_used"
	FailRateLimited FailureReason = "rate_limited"
)

// SolveInput carries everything a solve() call may supply.
type SolveInput struct {
	Answer          string            `json:"answer"`
	HMAC            string            `json:"hmac"`
	CanaryResponses map[string]string `json:"canary_responses,omitempty"`
	Metadata        *SolveMetadata    `json:"metadata,omitempty"`
	ClientRTTMs     float64           `json:"client_rtt_ms,omitempty"`
	StepTimings     []float64         `json:"step_timings,omitempty"`
}

// SolveMetadata is optional, non-authoritative metadata about the solver.
type SolveMetadata struct {
	Model     string `json:"model,omitempty"`
	Framework string `json:"framework,omitempty"`
}

// VerifyResult is what solve() returns to the caller.
type VerifyResult struct {
	Success         bool                 `json:"success"`
	Score           CapabilityScore      `json:"score"`
	Token           string               `json:"token,omitempty"`
	Reason          FailureReason        `json:"reason,omitempty"`
	ModelIdentity   *ModelIdentification `json:"model_identity,omitempty"`
	TimingAnalysis  *TimingAnalysis      `json:"timing_analysis,omitempty"`
	PatternAnalysis *PatternAnalysis     `json:"pattern_analysis,omitempty"`
}

// InitOptions configures init().
type InitOptions struct {
	Difficulty Difficulty
	Dimensions []Dimension
}

// InitResult is what init() returns.
type InitResult struct {
	ID           string `json:"id"`
	SessionToken string `json:"session_token"`
	ExpiresAtSec int64  `json:"expires_at"`
	TTLSeconds   int64  `json:"ttl_seconds"`
}

// TokenCheckResult is what verify(token) and decode(token) return.
type TokenCheckResult struct {
	Valid            bool             `json:"valid"`
	Subject          string           `json:"sub,omitempty"`
	Capabilities     *CapabilityScore `json:"capabilities,omitempty"`
	ModelFamily      string           `json:"model_family,omitempty"`
	ChallengeIDs     []string         `json:"challenge_ids,omitempty"`
	AgentAuthVersion string           `json:"agentauth_version,omitempty"`
	IssuedAt         int64            `json:"iat,omitempty"`
	ExpiresAt        int64            `json:"exp,omitempty"`
}
