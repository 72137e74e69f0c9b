package store

import (
	"context"
	"testing"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	record := &agentauth.ChallengeRecord{ID: "ch_1", ChallengeType: "multi-step"}
	require.NoError(t, s.Set(ctx, "ch_1", record, 30))

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "multi-step", got.ChallengeType)
}

func TestMemoryStore_GetMissingReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_GetExpiredReturnsNil(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ch_1", &agentauth.ChallengeRecord{ID: "ch_1"}, 0))
	time.Sleep(5 * time.Millisecond)

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ch_1", &agentauth.ChallengeRecord{ID: "ch_1"}, 30))
	require.NoError(t, s.Delete(ctx, "ch_1"))

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_SweepEvictsExpiredEntries(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	s.entries["ch_1"] = &memoryEntry{
		record:    &agentauth.ChallengeRecord{ID: "ch_1"},
		expiresAt: time.Now().Add(-time.Minute).UnixMilli(),
	}
	s.sweep()

	s.mu.RLock()
	_, ok := s.entries["ch_1"]
	s.mu.RUnlock()
	assert.False(t, ok)
}
