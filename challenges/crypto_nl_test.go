package challenges

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoNL_Name(t *testing.T) {
	d := &CryptoNLDriver{}
	assert.Equal(t, "crypto-nl", d.Name())
}

func TestCryptoNL_Dimensions(t *testing.T) {
	d := &CryptoNLDriver{}
	dims := d.Dimensions()
	require.Len(t, dims, 2)
	assert.Equal(t, agentauth.DimensionReasoning, dims[0])
	assert.Equal(t, agentauth.DimensionExecution, dims[1])
}

func TestCryptoNL_GenerateAndVerify(t *testing.T) {
	d := &CryptoNLDriver{}

	for _, diff := range []agentauth.Difficulty{
		agentauth.DifficultyEasy,
		agentauth.DifficultyMedium,
		agentauth.DifficultyHard,
		agentauth.DifficultyAdversarial,
	} {
		t.Run(string(diff), func(t *testing.T) {
			payload, answerHash, err := d.Generate(diff)
			require.NoError(t, err)

			assert.Equal(t, "crypto-nl", payload.Type)
			assert.NotEmpty(t, payload.Data)
			assert.Len(t, answerHash, 64)

			data, err := base64.StdEncoding.DecodeString(payload.Data)
			require.NoError(t, err)

			var ctx struct {
				Ops []ByteOperation `json:"ops"`
			}
			require.NoError(t, json.Unmarshal(payload.Context, &ctx))

			result, err := executeOps(data, ctx.Ops)
			require.NoError(t, err)

			answer := agentauth.ToHex(agentauth.SHA256Bytes(result))
			ok, err := d.Verify(answerHash, answer)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestCryptoNL_VerifyWrongAnswer(t *testing.T) {
	d := &CryptoNLDriver{}
	_, answerHash, err := d.Generate(agentauth.DifficultyEasy)
	require.NoError(t, err)

	ok, err := d.Verify(answerHash, "wrong_answer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCryptoNL_ApplyOps(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	xored, err := applyOp(data, ByteOperation{Op: OpXOR, Params: map[string]string{"key": "255"}})
	require.NoError(t, err)
	assert.Equal(t, byte(0xFE), xored[0])

	reversed, err := applyOp(data, ByteOperation{Op: OpReverse, Params: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, byte(0x04), reversed[0])
	assert.Equal(t, byte(0x01), reversed[3])

	unsorted := []byte{0x03, 0x01, 0x04, 0x02}
	sorted, err := applyOp(unsorted, ByteOperation{Op: OpSort, Params: map[string]string{}})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(i+1), sorted[i])
	}

	notted, err := applyOp([]byte{0x00, 0xFF}, ByteOperation{Op: OpBitwiseNot, Params: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), notted[0])
	assert.Equal(t, byte(0x00), notted[1])
}
