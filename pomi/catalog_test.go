package pomi

import (
	"testing"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_DefaultHas17Canaries(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	assert.Len(t, catalog.List(), 17)
}

func TestCatalog_Version(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	assert.Equal(t, CatalogVersion, catalog.Version)
}

func TestCatalog_Get(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	c := catalog.Get("unicode-rtl")
	require.NotNil(t, c)
	assert.Equal(t, "unicode-rtl", c.ID)
}

func TestCatalog_GetMissing(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	assert.Nil(t, catalog.Get("nonexistent"))
}

func TestCatalog_Select(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	selected := catalog.Select(3, nil)
	require.Len(t, selected, 3)

	ids := make(map[string]bool)
	for _, c := range selected {
		assert.False(t, ids[c.ID], "duplicate canary id: %s", c.ID)
		ids[c.ID] = true
	}
}

func TestCatalog_SelectByMethod(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	method := agentauth.InjectionInline
	selected := catalog.Select(20, &CatalogSelectOptions{Method: &method})
	for _, c := range selected {
		assert.Equal(t, agentauth.InjectionInline, c.InjectionMethod)
	}
}

func TestCatalog_SelectExclude(t *testing.T) {
	catalog := NewCanaryCatalog(nil)
	selected := catalog.Select(20, &CatalogSelectOptions{Exclude: []string{"unicode-rtl", "math-precision"}})
	for _, c := range selected {
		assert.NotContains(t, []string{"unicode-rtl", "math-precision"}, c.ID)
	}
}
