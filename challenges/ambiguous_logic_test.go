package challenges

import (
	"encoding/json"
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbiguous_Name(t *testing.T) {
	d := &AmbiguousLogicDriver{}
	assert.Equal(t, "ambiguous-logic", d.Name())
}

func TestAmbiguous_Dimensions(t *testing.T) {
	d := &AmbiguousLogicDriver{}
	dims := d.Dimensions()
	require.Len(t, dims, 2)
	assert.Equal(t, agentauth.DimensionAmbiguity, dims[1])
}

func TestAmbiguous_GenerateAndVerify(t *testing.T) {
	d := &AmbiguousLogicDriver{}

	for _, diff := range []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
	} {
		t.Run(string(diff), func(t *testing.T) {
			payload, answerHash, err := d.Generate(diff)
			require.NoError(t, err)

			assert.Equal(t, "ambiguous-logic", payload.Type)
			assert.NotEmpty(t, answerHash)

			var ctx struct {
				PrimaryAnswer string `json:"primaryAnswer"`
			}
			require.NoError(t, json.Unmarshal(payload.Context, &ctx))

			ok, err := d.Verify(answerHash, ctx.PrimaryAnswer)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestAmbiguous_VerifyWrongAnswer(t *testing.T) {
	d := &AmbiguousLogicDriver{}
	_, answerHash, err := d.Generate(agentauth.DifficultyEasy)
	require.NoError(t, err)

	ok, err := d.Verify(answerHash, "wrong_answer_hex")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAmbiguous_Helpers(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	xored := xorBytesArr(data, 0xFF)
	assert.Equal(t, byte(0xFE), xored[0])

	unsorted := []byte{0x04, 0x02, 0x03, 0x01}
	sorted := sortAscending(unsorted)
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(i+1), sorted[i])
	}

	reversed := reverseBytes(data)
	assert.Equal(t, byte(0x04), reversed[0])
	assert.Equal(t, byte(0x01), reversed[3])
}
