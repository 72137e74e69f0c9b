package challenges

import (
	"encoding/json"
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiStep_Name(t *testing.T) {
	d := &MultiStepDriver{}
	assert.Equal(t, "multi-step", d.Name())
}

func TestMultiStep_Dimensions(t *testing.T) {
	d := &MultiStepDriver{}
	dims := d.Dimensions()
	require.Len(t, dims, 3)
	assert.Equal(t, agentauth.DimensionMemory, dims[2])
}

func TestMultiStep_GenerateAndVerify(t *testing.T) {
	d := &MultiStepDriver{}

	for _, diff := range []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
	} {
		t.Run(string(diff), func(t *testing.T) {
			payload, answerHash, err := d.Generate(diff)
			require.NoError(t, err)

			assert.Equal(t, "multi-step", payload.Type)
			assert.NotEmpty(t, answerHash)

			var ctx struct {
				ExpectedAnswer string `json:"expectedAnswer"`
			}
			require.NoError(t, json.Unmarshal(payload.Context, &ctx))

			ok, err := d.Verify(answerHash, ctx.ExpectedAnswer)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestMultiStep_VerifyWrongAnswer(t *testing.T) {
	d := &MultiStepDriver{}
	_, answerHash, err := d.Generate(agentauth.DifficultyEasy)
	require.NoError(t, err)

	ok, err := d.Verify(answerHash, "wrong_answer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMultiStep_StepExecution(t *testing.T) {
	inputHex := "0102030405060708"

	result := executeStepMS(0, stepDef{Type: stepSHA256}, inputHex, nil)
	assert.Len(t, result, 64)

	result2 := executeStepMS(0, stepDef{Type: stepXOR, Key: 0xFF}, inputHex, nil)
	assert.Len(t, result2, len(inputHex))
}
