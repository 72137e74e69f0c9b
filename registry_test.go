package agentauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDriver struct {
	name       string
	dimensions []Dimension
}

func (m *mockDriver) Name() string                                  { return m.name }
func (m *mockDriver) Dimensions() []Dimension                       { return m.dimensions }
func (m *mockDriver) EstimatedHumanTimeMs(_ Difficulty) int64       { return 60000 }
func (m *mockDriver) EstimatedAITimeMs(_ Difficulty) int64          { return 500 }
func (m *mockDriver) Generate(_ Difficulty) (*ChallengePayload, string, error) {
	return &ChallengePayload{Type: m.name}, "hash", nil
}
func (m *mockDriver) Verify(answerHash string, submitted string) (bool, error) {
	return answerHash == submitted, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewChallengeRegistry()
	d := &mockDriver{name: "test-driver", dimensions: []Dimension{DimensionReasoning}}
	reg.Register(d)

	got, ok := reg.Get("test-driver")
	require.True(t, ok)
	assert.Equal(t, "test-driver", got.Name())
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := NewChallengeRegistry()
	_, ok := reg.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_List(t *testing.T) {
	reg := NewChallengeRegistry()
	reg.Register(&mockDriver{name: "a", dimensions: []Dimension{DimensionReasoning}})
	reg.Register(&mockDriver{name: "b", dimensions: []Dimension{DimensionExecution}})

	list := reg.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name())
	assert.Equal(t, "b", list[1].Name())
}

func TestRegistry_SelectByDimension(t *testing.T) {
	reg := NewChallengeRegistry()
	reg.Register(&mockDriver{name: "reasoning-only", dimensions: []Dimension{DimensionReasoning}})
	reg.Register(&mockDriver{name: "exec-only", dimensions: []Dimension{DimensionExecution}})
	reg.Register(&mockDriver{name: "both", dimensions: []Dimension{DimensionReasoning, DimensionExecution}})

	selected := reg.Select([]Dimension{DimensionReasoning}, 2)
	require.Len(t, selected, 2)
	first := selected[0]
	assert.Contains(t, []string{"reasoning-only", "both"}, first.Name())
}

func TestRegistry_SelectNoDimensions(t *testing.T) {
	reg := NewChallengeRegistry()
	reg.Register(&mockDriver{name: "a", dimensions: []Dimension{DimensionReasoning}})
	reg.Register(&mockDriver{name: "b", dimensions: []Dimension{DimensionExecution}})

	selected := reg.Select(nil, 1)
	assert.Len(t, selected, 1)
}

func TestRegistry_SelectCountClampedToAvailable(t *testing.T) {
	reg := NewChallengeRegistry()
	reg.Register(&mockDriver{name: "only", dimensions: []Dimension{DimensionReasoning}})

	selected := reg.Select([]Dimension{DimensionReasoning}, 5)
	assert.Len(t, selected, 1)
}
