package challenges

import (
	"encoding/json"
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeExec_Name(t *testing.T) {
	d := &CodeExecutionDriver{}
	assert.Equal(t, "code-execution", d.Name())
}

func TestCodeExec_Dimensions(t *testing.T) {
	d := &CodeExecutionDriver{}
	dims := d.Dimensions()
	require.Len(t, dims, 2)
}

func TestCodeExec_GenerateAndVerify(t *testing.T) {
	d := &CodeExecutionDriver{}

	for _, diff := range []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
	} {
		t.Run(string(diff), func(t *testing.T) {
			payload, answerHash, err := d.Generate(diff)
			require.NoError(t, err)

			assert.Equal(t, "code-execution", payload.Type)
			assert.NotEmpty(t, answerHash)

			var ctx struct {
				CorrectOutput string `json:"correctOutput"`
			}
			require.NoError(t, json.Unmarshal(payload.Context, &ctx))

			ok, err := d.Verify(answerHash, ctx.CorrectOutput)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCodeExec_VerifyWrongAnswer(t *testing.T) {
	d := &CodeExecutionDriver{}
	_, answerHash, err := d.Generate(agentauth.DifficultyEasy)
	require.NoError(t, err)

	ok, err := d.Verify(answerHash, "totally_wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodeExec_RunTemplateByteTransform(t *testing.T) {
	tmpl := allCodeTemplates[0]
	input, err := tmpl.generateInput()
	require.NoError(t, err)

	output, err := runTemplate(tmpl, input)
	require.NoError(t, err)
	assert.Len(t, output, 64)
}

func TestCodeExec_RunTemplateIsDeterministic(t *testing.T) {
	tmpl := allCodeTemplates[1]
	input, err := tmpl.generateInput()
	require.NoError(t, err)

	first, err := runTemplate(tmpl, input)
	require.NoError(t, err)
	second, err := runTemplate(tmpl, input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
