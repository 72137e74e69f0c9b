package pomi

import (
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector_ZeroCount(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	injector := NewCanaryInjector(catalog)

	payload := agentauth.ChallengePayload{
		Type:         "test",
		Instructions: "Do something",
	}

	result := injector.Inject(payload, 0, nil)
	assert.Empty(t, result.Injected)
	assert.Equal(t, "Do something", result.Payload.Instructions)
}

func TestInjector_InjectCanaries(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	injector := NewCanaryInjector(catalog)

	payload := agentauth.ChallengePayload{
		Type:         "test",
		Instructions: "Solve this challenge.",
	}

	result := injector.Inject(payload, 3, nil)
	require.Len(t, result.Injected, 3)

	assert.NotEqual(t, "Solve this challenge.", result.Payload.Instructions)
	assert.Contains(t, result.Payload.Instructions, "canary_responses")
}

func TestInjector_ExcludeCanaries(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	injector := NewCanaryInjector(catalog)

	payload := agentauth.ChallengePayload{
		Type:         "test",
		Instructions: "Test",
	}

	result := injector.Inject(payload, 20, &InjectOptions{
		Exclude: []string{"unicode-rtl", "math-precision"},
	})
	for _, c := range result.Injected {
		assert.NotContains(t, []string{"unicode-rtl", "math-precision"}, c.ID)
	}
}

func TestInjector_PrefixCanaries(t *testing.T) {
	canaries := []agentauth.Canary{
		{
			ID:               "test-prefix",
			Prompt:           "Test prefix prompt",
			InjectionMethod:  agentauth.InjectionPrefix,
			Analysis:         agentauth.CanaryAnalysis{Type: "exact_match", Expected: map[string]string{"test": "yes"}},
			ConfidenceWeight: 0.5,
		},
	}
	catalog := NewCanaryCatalog(canaries)
	injector := NewCanaryInjector(catalog)

	payload := agentauth.ChallengePayload{
		Type:         "test",
		Instructions: "Main instructions",
	}

	result := injector.Inject(payload, 1, nil)
	assert.True(t, len(result.Payload.Instructions) > 0)
	assert.Contains(t, result.Payload.Instructions, "Before starting")
}
