// Package scorer turns a solved challenge's dimensions plus its timing and
// pattern verdicts into the five-axis capability vector returned to callers.
package scorer

import (
	"math"

	agentauth "github.com/agentauth/engine"
)

const patternPenaltyArtificial = 0.3

func hasDimension(dims []agentauth.Dimension, target agentauth.Dimension) bool {
	for _, d := range dims {
		if d == target {
			return true
		}
	}
	return false
}

// Compute derives a CapabilityScore from the dimensions a challenge
// exercised and the timing/pattern analyses from its solve. timing and
// pattern may be nil when their respective analyses were skipped.
func Compute(dims []agentauth.Dimension, timing *agentauth.TimingAnalysis, pattern *agentauth.PatternAnalysis) agentauth.CapabilityScore {
	penalty := 0.0
	zone := agentauth.TimingZone("")
	if timing != nil {
		penalty = timing.Penalty
		zone = timing.Zone
	}

	patternPenalty := 0.0
	if pattern != nil && pattern.Verdict == "artificial" {
		patternPenalty = patternPenaltyArtificial
	}

	reasoning := 0.5
	if hasDimension(dims, agentauth.DimensionReasoning) {
		reasoning = 0.9
	}

	execution := 0.5
	if hasDimension(dims, agentauth.DimensionExecution) {
		execution = 0.95
	}

	speed := round3((1 - penalty) * 0.95)

	autonomy := 0.9
	if zone == agentauth.ZoneHuman || zone == agentauth.ZoneSuspicious {
		autonomy = (1 - penalty) * 0.9
	}
	autonomy = round3(autonomy * (1 - patternPenalty))

	consistency := 0.9
	if hasDimension(dims, agentauth.DimensionMemory) {
		consistency = 0.92
	}
	consistency = round3(consistency * (1 - patternPenalty))

	return agentauth.CapabilityScore{
		Reasoning:   reasoning,
		Execution:   execution,
		Speed:       speed,
		Autonomy:    autonomy,
		Consistency: consistency,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
