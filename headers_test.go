package agentauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCapabilities(t *testing.T) {
	score := CapabilityScore{
		Reasoning:   0.9,
		Execution:   0.85,
		Autonomy:    0.8,
		Speed:       0.75,
		Consistency: 0.88,
	}
	result := FormatCapabilities(score)
	assert.Equal(t, "r=0.90,e=0.85,a=0.80,s=0.75,c=0.88", result)
}

func TestParseCapabilities(t *testing.T) {
	score, err := ParseCapabilities("r=0.90,e=0.85,a=0.80,s=0.75,c=0.88")
	require.NoError(t, err)
	assert.Equal(t, 0.9, score.Reasoning)
	assert.Equal(t, 0.85, score.Execution)
	assert.Equal(t, 0.8, score.Autonomy)
	assert.Equal(t, 0.75, score.Speed)
	assert.Equal(t, 0.88, score.Consistency)
}

func TestParseCapabilitiesRoundtrip(t *testing.T) {
	score := CapabilityScore{
		Reasoning:   0.9,
		Execution:   0.85,
		Autonomy:    0.8,
		Speed:       0.75,
		Consistency: 0.88,
	}
	parsed, err := ParseCapabilities(FormatCapabilities(score))
	require.NoError(t, err)
	assert.Equal(t, score, parsed)
}

func TestParseCapabilitiesEmpty(t *testing.T) {
	score, err := ParseCapabilities("")
	require.NoError(t, err)
	assert.Equal(t, CapabilityScore{}, score)
}

func TestParseCapabilitiesInvalidValue(t *testing.T) {
	_, err := ParseCapabilities("r=not-a-number,e=0.85")
	assert.Error(t, err)
}

func TestParseCapabilitiesUnknownFieldIgnored(t *testing.T) {
	score, err := ParseCapabilities("r=0.90,zzz=1.0")
	require.NoError(t, err)
	assert.Equal(t, 0.9, score.Reasoning)
}

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "AgentAuth-Status", HeaderStatus)
	assert.Equal(t, "AgentAuth-Capabilities", HeaderCapabilities)
	assert.Equal(t, "AgentAuth-Challenge-Id", HeaderChallengeID)
	assert.Equal(t, "AgentAuth-Score", HeaderScore)
	assert.Equal(t, "AgentAuth-Model-Family", HeaderModelFamily)
	assert.Equal(t, "AgentAuth-PoMI-Confidence", HeaderPoMIConfidence)
	assert.Equal(t, "AgentAuth-Version", HeaderVersion)
	assert.Equal(t, "AgentAuth-Token-Expires", HeaderTokenExpires)
}
