package timing

import (
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaselines_Count(t *testing.T) {
	assert.Len(t, DefaultBaselines, 16)
}

func TestBaselines_GetBaseline(t *testing.T) {
	b := GetBaseline("crypto-nl", agentauth.DifficultyEasy)
	require.NotNil(t, b)
	assert.Equal(t, 150.0, b.MeanMs)
	assert.Equal(t, 20.0, b.TooFastMs)
}

func TestBaselines_GetBaselineMissing(t *testing.T) {
	b := GetBaseline("nonexistent", agentauth.DifficultyEasy)
	assert.Nil(t, b)
}

func TestBaselines_AllTypes(t *testing.T) {
	types := []string{"crypto-nl", "multi-step", "ambiguous-logic", "code-execution"}
	diffs := []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
		agentauth.DifficultyAdversarial,
	}

	for _, ct := range types {
		for _, d := range diffs {
			b := GetBaseline(ct, d)
			assert.NotNilf(t, b, "missing baseline for %s/%s", ct, d)
		}
	}
}
