package pomi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultFamilies = []string{"gpt-4-class", "claude-3-class", "gemini-class", "llama-class", "mistral-class"}

func TestClassifier_NoResponses(t *testing.T) {
	mc := NewModelClassifier(defaultFamilies, nil)
	result := mc.Classify(DefaultCanaries, nil)
	assert.Equal(t, "unknown", result.Family)
	assert.Zero(t, result.Confidence)
}

func TestClassifier_NoCanaries(t *testing.T) {
	mc := NewModelClassifier(defaultFamilies, nil)
	result := mc.Classify(nil, map[string]string{"test": "value"})
	assert.Equal(t, "unknown", result.Family)
}

func TestClassifier_WithExactMatchEvidence(t *testing.T) {
	mc := NewModelClassifier(defaultFamilies, nil)

	responses := map[string]string{
		"unicode-rtl":    "C",
		"math-precision": "0.3",
		"emoji-choice":   "\U0001F60A",
	}

	result := mc.Classify(DefaultCanaries, responses)
	assert.NotZero(t, result.Confidence)
	assert.NotEmpty(t, result.Evidence)
	assert.NotEmpty(t, result.Family)
}

func TestClassifier_LowConfidenceThreshold(t *testing.T) {
	mc := NewModelClassifier(defaultFamilies, &ClassifierOptions{ConfidenceThreshold: 0.99})

	responses := map[string]string{
		"analogy-completion": "puppy",
	}

	result := mc.Classify(DefaultCanaries, responses)
	if result.Family == "unknown" {
		assert.NotEmpty(t, result.Alternatives, "expected alternatives when family is unknown")
	}
}

func TestClassifier_GaussianPdf(t *testing.T) {
	pdf := gaussianPdf(0, 0, 1)
	assert.InDelta(t, 0.3989, pdf, 0.001)

	pdfAtMean := gaussianPdf(5, 5, 2)
	pdfAway := gaussianPdf(8, 5, 2)
	assert.Greater(t, pdfAtMean, pdfAway)
}
