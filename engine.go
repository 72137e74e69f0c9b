package agentauth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is the persistence boundary the engine uses for challenge records.
// It is declared here, rather than imported from the store subpackage, so
// this package has no dependency on any particular backend; callers wire up
// a concrete implementation (store.MemoryStore, store.RedisStore, ...) that
// satisfies it.
type Store interface {
	Set(ctx context.Context, id string, record *ChallengeRecord, ttlSeconds int64) error
	Get(ctx context.Context, id string) (*ChallengeRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// CanaryInjectFunc rewrites a payload's instructions with canary side-prompts.
// Implemented by pomi.CanaryInjector; wired through SetPomiHandlers to avoid
// an import cycle between this package and pomi.
type CanaryInjectFunc func(payload ChallengePayload, count int) (ChallengePayload, []Canary)

// ModelClassifyFunc performs PoMI classification. Implemented by
// pomi.ModelClassifier.Classify.
type ModelClassifyFunc func(canaries []Canary, responses map[string]string) ModelIdentification

// TimingAnalyzeFunc classifies elapsed solve time into a zone. Implemented
// by timing.TimingAnalyzer.Analyze.
type TimingAnalyzeFunc func(elapsedMs float64, challengeType string, difficulty Difficulty, rttMs float64) TimingAnalysis

// TimingPatternFunc analyzes per-step timing samples. Implemented by
// timing.TimingAnalyzer.AnalyzePattern.
type TimingPatternFunc func(stepTimings []float64) PatternAnalysis

// SessionRecordFunc records a solve's timing into the per-session tracker.
// Implemented by timing.SessionTimingTracker.Record.
type SessionRecordFunc func(sessionID string, elapsedMs float64, zone TimingZone)

// SessionAnalyzeFunc surfaces anomalies accumulated for a session.
// Implemented by timing.SessionTimingTracker.Analyze.
type SessionAnalyzeFunc func(sessionID string) []SessionAnomaly

// ScoreFunc turns a driver's dimensions plus the timing/pattern verdicts
// from a solve into a capability vector. Implemented by scorer.Compute;
// defaultComputeScore below is the built-in fallback so an Engine scores
// correctly even before SetScoreFunc is called.
type ScoreFunc func(dimensions []Dimension, timing *TimingAnalysis, pattern *PatternAnalysis) CapabilityScore

// MetricsRecorder is the subset of metrics.Metrics the engine increments.
// Declared here (not imported from the metrics subpackage) for the same
// reason as Store: no backward dependency from the root package.
type MetricsRecorder interface {
	RecordIssued(driver, difficulty string)
	RecordSolved(driver, outcome string)
	RecordTimingZone(driver, zone string)
	RecordPomiConfidence(modelFamily string, confidence float64)
	RecordSolveDuration(driver string, seconds float64)
}

// Engine is the server-side AgentAuth challenge engine. It coordinates
// challenge generation, verification, PoMI model identification, timing
// analysis, and token issuance.
type Engine struct {
	config   Config
	registry *ChallengeRegistry
	store    Store
	tokens   *TokenManager
	logger   *logrus.Logger
	metrics  MetricsRecorder

	pomiEnabled   bool
	timingEnabled bool

	pomiInjectFunc     CanaryInjectFunc
	pomiClassifyFunc   ModelClassifyFunc
	timingAnalyzeFunc  TimingAnalyzeFunc
	timingPatternFunc  TimingPatternFunc
	sessionRecordFunc  SessionRecordFunc
	sessionAnalyzeFunc SessionAnalyzeFunc
	scoreFunc          ScoreFunc
}

// NewEngine creates an Engine bound to config and store. Config zero values
// are filled from DefaultConfig.
func NewEngine(config Config, store Store) *Engine {
	defaults := DefaultConfig()
	if config.ChallengeTTLSeconds == 0 {
		config.ChallengeTTLSeconds = defaults.ChallengeTTLSeconds
	}
	if config.TokenTTLSeconds == 0 {
		config.TokenTTLSeconds = defaults.TokenTTLSeconds
	}
	if config.MinScore == 0 {
		config.MinScore = defaults.MinScore
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = defaults.LogFormat
	}

	return &Engine{
		config:    config,
		registry:  NewChallengeRegistry(),
		store:     store,
		tokens:    NewTokenManager(config.Secret),
		logger:    NewLogger(config.LogLevel, config.LogFormat),
		scoreFunc: defaultComputeScore,
	}
}

// RegisterDriver registers a challenge driver with the engine.
func (e *Engine) RegisterDriver(driver ChallengeDriver) {
	e.registry.Register(driver)
}

// SetMetrics wires a MetricsRecorder; metrics recording is skipped when nil.
func (e *Engine) SetMetrics(m MetricsRecorder) {
	e.metrics = m
}

// SetScoreFunc overrides the capability scorer. Callers typically pass
// scorer.Compute, the promoted, independently-testable version of the same
// formulas defaultComputeScore implements inline.
func (e *Engine) SetScoreFunc(fn ScoreFunc) {
	e.scoreFunc = fn
}

// SetPomiHandlers enables PoMI canary injection and classification. Callers
// typically pass pomi.CanaryInjector.Inject and pomi.ModelClassifier.Classify,
// adapted to this package's function types.
func (e *Engine) SetPomiHandlers(inject CanaryInjectFunc, classify ModelClassifyFunc) {
	e.pomiEnabled = true
	e.pomiInjectFunc = inject
	e.pomiClassifyFunc = classify
}

// SetTimingHandlers enables timing analysis, per-step pattern analysis, and
// the per-session anomaly tracker.
func (e *Engine) SetTimingHandlers(analyze TimingAnalyzeFunc, pattern TimingPatternFunc, sessionRecord SessionRecordFunc, sessionAnalyze SessionAnalyzeFunc) {
	e.timingEnabled = true
	e.timingAnalyzeFunc = analyze
	e.timingPatternFunc = pattern
	e.sessionRecordFunc = sessionRecord
	e.sessionAnalyzeFunc = sessionAnalyze
}

// Init creates a new challenge, stores it, and returns the init result.
func (e *Engine) Init(ctx context.Context, options *InitOptions) (*InitResult, error) {
	difficulty := DifficultyMedium
	var dimensions []Dimension
	if options != nil {
		if options.Difficulty != "" {
			difficulty = options.Difficulty
		}
		dimensions = options.Dimensions
	}

	selected := e.registry.Select(dimensions, 1)
	if len(selected) == 0 {
		return nil, fmt.Errorf("init challenge: %w", ErrNoDriverAvailable)
	}
	driver := selected[0]

	id, err := GenerateID()
	if err != nil {
		return nil, fmt.Errorf("generating challenge id: %w", err)
	}
	sessionToken, err := GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Unix() + e.config.ChallengeTTLSeconds

	payload, answerHash, err := driver.Generate(difficulty)
	if err != nil {
		return nil, fmt.Errorf("generating challenge payload: %w", err)
	}

	var injectedCanaries []Canary
	if e.pomiEnabled && e.pomiInjectFunc != nil && e.config.Pomi.CanariesPerChallenge > 0 {
		newPayload, canaries := e.pomiInjectFunc(*payload, e.config.Pomi.CanariesPerChallenge)
		payload = &newPayload
		injectedCanaries = canaries
	}

	record := &ChallengeRecord{
		ID:             id,
		SessionToken:   sessionToken,
		ChallengeType:  driver.Name(),
		Payload:        *payload,
		Difficulty:     difficulty,
		Dimensions:     driver.Dimensions(),
		CreatedAtSec:   now.Unix(),
		CreatedAtMs:    now.UnixMilli(),
		ExpiresAtSec:   expiresAt,
		AnswerHash:     answerHash,
		MaxAttempts:    e.config.MaxAttempts,
		InjectedCanary: injectedCanaries,
	}

	if err := e.store.Set(ctx, id, record, e.config.ChallengeTTLSeconds); err != nil {
		return nil, fmt.Errorf("storing challenge: %w", err)
	}

	e.log().WithFields(map[string]interface{}{
		"challenge_id": id,
		"driver":       driver.Name(),
		"difficulty":   difficulty,
	}).Info("challenge issued")

	if e.metrics != nil {
		e.metrics.RecordIssued(driver.Name(), string(difficulty))
	}

	return &InitResult{
		ID:           id,
		SessionToken: sessionToken,
		ExpiresAtSec: expiresAt,
		TTLSeconds:   e.config.ChallengeTTLSeconds,
	}, nil
}

// Retrieve fetches a challenge's public view, validating the session token.
// A missing record and a bad token return the same (nil, nil) shape so
// neither leaks information about which one occurred.
func (e *Engine) Retrieve(ctx context.Context, id, sessionToken string) (*PublicChallenge, error) {
	record, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching challenge: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	if !TimingSafeEqual(record.SessionToken, sessionToken) {
		return nil, nil
	}

	publicPayload := record.Payload
	publicPayload.Context = nil

	return &PublicChallenge{
		ID:           record.ID,
		Payload:      publicPayload,
		Difficulty:   record.Difficulty,
		Dimensions:   record.Dimensions,
		CreatedAtSec: record.CreatedAtSec,
		ExpiresAtSec: record.ExpiresAtSec,
	}, nil
}

// Solve runs the canonical solve pipeline: HMAC gate, single-use delete,
// answer verification, timing analysis, pattern analysis, capability
// scoring, PoMI classification, and token issuance.
func (e *Engine) Solve(ctx context.Context, id string, input *SolveInput) (*VerifyResult, error) {
	zeroScore := CapabilityScore{}

	record, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching challenge: %w", err)
	}
	if record == nil {
		return e.failed("", zeroScore, FailExpired), nil
	}

	expectedHMAC := HmacSHA256Hex(record.SessionToken, input.Answer)
	if !TimingSafeEqual(expectedHMAC, input.HMAC) {
		return e.failed(record.ChallengeType, zeroScore, FailInvalidHMAC), nil
	}

	// Single-use: delete before evaluating the answer so a retry can never
	// amortize work against the same record.
	if err := e.store.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting challenge: %w", err)
	}

	driver, ok := e.registry.Get(record.ChallengeType)
	if !ok {
		return e.failed(record.ChallengeType, zeroScore, FailWrongAnswer), nil
	}

	correct, err := driver.Verify(record.AnswerHash, input.Answer)
	if err != nil {
		return nil, fmt.Errorf("verifying answer: %w", err)
	}
	if !correct {
		return e.failed(record.ChallengeType, zeroScore, FailWrongAnswer), nil
	}

	var timingAnalysis *TimingAnalysis
	if e.timingEnabled && e.timingAnalyzeFunc != nil {
		nowMs := time.Now().UnixMilli()
		baseElapsed := float64(nowMs - record.CreatedAtMs)

		rttMs := 0.0
		if input.ClientRTTMs > 0 {
			rttMs = math.Min(input.ClientRTTMs, baseElapsed*0.5)
		}
		elapsedMs := baseElapsed - rttMs

		ta := e.timingAnalyzeFunc(elapsedMs, record.ChallengeType, record.Difficulty, rttMs)
		timingAnalysis = &ta

		if e.sessionRecordFunc != nil {
			e.sessionRecordFunc(record.SessionToken, elapsedMs, ta.Zone)
		}
		if e.metrics != nil {
			e.metrics.RecordTimingZone(record.ChallengeType, string(ta.Zone))
			e.metrics.RecordSolveDuration(record.ChallengeType, elapsedMs/1000)
		}

		if ta.Zone == ZoneTooFast {
			return e.failedWithTiming(record, zeroScore, FailTooFast, timingAnalysis), nil
		}
		if ta.Zone == ZoneTimeout {
			return e.failedWithTiming(record, zeroScore, FailTimeout, timingAnalysis), nil
		}
	}

	var patternAnalysis *PatternAnalysis
	if e.timingEnabled && e.timingPatternFunc != nil && len(input.StepTimings) > 0 {
		pa := e.timingPatternFunc(input.StepTimings)
		patternAnalysis = &pa
	}

	score := e.scoreFunc(record.Dimensions, timingAnalysis, patternAnalysis)

	var modelIdentity *ModelIdentification
	if e.pomiEnabled && e.pomiClassifyFunc != nil && len(record.InjectedCanary) > 0 {
		mi := e.pomiClassifyFunc(record.InjectedCanary, input.CanaryResponses)
		modelIdentity = &mi
		if e.metrics != nil && mi.Family != "unknown" {
			e.metrics.RecordPomiConfidence(mi.Family, mi.Confidence)
		}
	}

	modelFamily := "unknown"
	if modelIdentity != nil && modelIdentity.Family != "unknown" {
		modelFamily = modelIdentity.Family
	}

	token, err := e.tokens.Sign(id, score, modelFamily, time.Duration(e.config.TokenTTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	e.log().WithFields(map[string]interface{}{
		"challenge_id": id,
		"driver":       record.ChallengeType,
		"model_family": modelFamily,
	}).Info("challenge solved")

	if e.metrics != nil {
		e.metrics.RecordSolved(record.ChallengeType, "success")
	}

	return &VerifyResult{
		Success:         true,
		Score:           score,
		Token:           token,
		ModelIdentity:   modelIdentity,
		TimingAnalysis:  timingAnalysis,
		PatternAnalysis: patternAnalysis,
	}, nil
}

// SessionAnomalies surfaces timing anomalies accumulated for sessionID,
// e.g. to gate a higher layer's rate limiting. Returns nil if the timing
// subsystem is disabled.
func (e *Engine) SessionAnomalies(sessionID string) []SessionAnomaly {
	if !e.timingEnabled || e.sessionAnalyzeFunc == nil {
		return nil
	}
	return e.sessionAnalyzeFunc(sessionID)
}

// VerifyToken verifies a bearer token and returns its decoded check result.
func (e *Engine) VerifyToken(token string) (*TokenCheckResult, error) {
	result, err := e.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	return &result, nil
}

// DecodeToken returns a token's claims without verifying its signature or
// expiration, for observability.
func (e *Engine) DecodeToken(token string) (*TokenCheckResult, error) {
	result, err := e.tokens.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return &result, nil
}

func (e *Engine) failed(driver string, score CapabilityScore, reason FailureReason) *VerifyResult {
	if e.metrics != nil && driver != "" {
		e.metrics.RecordSolved(driver, string(reason))
	}
	e.log().WithFields(map[string]interface{}{
		"reason": reason,
		"driver": driver,
	}).Warn("challenge solve failed")
	return &VerifyResult{Success: false, Score: score, Reason: reason}
}

func (e *Engine) failedWithTiming(record *ChallengeRecord, score CapabilityScore, reason FailureReason, timing *TimingAnalysis) *VerifyResult {
	result := e.failed(record.ChallengeType, score, reason)
	result.TimingAnalysis = timing
	return result
}

func (e *Engine) log() *logrus.Entry {
	return entry(e.logger)
}

func hasDimension(dims []Dimension, target Dimension) bool {
	for _, d := range dims {
		if d == target {
			return true
		}
	}
	return false
}

// defaultComputeScore is the engine's built-in capability scorer, used
// until SetScoreFunc wires in scorer.Compute. Same formulas, kept here so
// an Engine scores correctly even when the scorer package isn't wired in.
func defaultComputeScore(dims []Dimension, timing *TimingAnalysis, pattern *PatternAnalysis) CapabilityScore {
	penalty := 0.0
	zone := TimingZone("")
	if timing != nil {
		penalty = timing.Penalty
		zone = timing.Zone
	}

	patternPenalty := 0.0
	if pattern != nil && pattern.Verdict == "artificial" {
		patternPenalty = 0.3
	}

	reasoning := 0.5
	if hasDimension(dims, DimensionReasoning) {
		reasoning = 0.9
	}

	execution := 0.5
	if hasDimension(dims, DimensionExecution) {
		execution = 0.95
	}

	round3 := func(v float64) float64 { return math.Round(v*1000) / 1000 }

	speed := round3((1 - penalty) * 0.95)

	autonomy := 0.9
	if zone == ZoneHuman || zone == ZoneSuspicious {
		autonomy = (1 - penalty) * 0.9
	}
	autonomy = round3(autonomy * (1 - patternPenalty))

	consistency := 0.9
	if hasDimension(dims, DimensionMemory) {
		consistency = 0.92
	}
	consistency = round3(consistency * (1 - patternPenalty))

	return CapabilityScore{
		Reasoning:   reasoning,
		Execution:   execution,
		Speed:       speed,
		Autonomy:    autonomy,
		Consistency: consistency,
	}
}
