package agentauth

import (
	"fmt"
	"strconv"
	"strings"
)

// Response header names a server wires up around solve()/verify() results.
const (
	HeaderStatus         = "AgentAuth-Status"
	HeaderScore          = "AgentAuth-Score"
	HeaderModelFamily    = "AgentAuth-Model-Family"
	HeaderPoMIConfidence = "AgentAuth-PoMI-Confidence"
	HeaderCapabilities   = "AgentAuth-Capabilities"
	HeaderVersion        = "AgentAuth-Version"
	HeaderChallengeID    = "AgentAuth-Challenge-Id"
	HeaderTokenExpires   = "AgentAuth-Token-Expires"
)

// FormatCapabilities renders a capability score as the compact
// "r=0.80,e=0.90,a=0.75,s=0.60,c=0.95" form used in HeaderCapabilities.
func FormatCapabilities(score CapabilityScore) string {
	return fmt.Sprintf("r=%.2f,e=%.2f,a=%.2f,s=%.2f,c=%.2f",
		score.Reasoning, score.Execution, score.Autonomy, score.Speed, score.Consistency)
}

// ParseCapabilities parses the FormatCapabilities wire form back into a score.
func ParseCapabilities(s string) (CapabilityScore, error) {
	var score CapabilityScore
	fields := map[string]*float64{
		"r": &score.Reasoning,
		"e": &score.Execution,
		"a": &score.Autonomy,
		"s": &score.Speed,
		"c": &score.Consistency,
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		target, ok := fields[kv[0]]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return score, fmt.Errorf("parsing capability field %q: %w", kv[0], err)
		}
		*target = v
	}
	return score, nil
}
