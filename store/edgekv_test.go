package store

import (
	"context"
	"testing"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeKVStore_SetAndGet(t *testing.T) {
	s := NewEdgeKVStore(NewInProcessEdgeKV())
	ctx := context.Background()

	record := &agentauth.ChallengeRecord{ID: "ch_1", ChallengeType: "crypto-nl"}
	require.NoError(t, s.Set(ctx, "ch_1", record, 30))

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "crypto-nl", got.ChallengeType)
}

func TestEdgeKVStore_GetMissingReturnsNil(t *testing.T) {
	s := NewEdgeKVStore(NewInProcessEdgeKV())

	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEdgeKVStore_Delete(t *testing.T) {
	s := NewEdgeKVStore(NewInProcessEdgeKV())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ch_1", &agentauth.ChallengeRecord{ID: "ch_1"}, 30))
	require.NoError(t, s.Delete(ctx, "ch_1"))

	got, err := s.Get(ctx, "ch_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEdgeKVStore_Close(t *testing.T) {
	s := NewEdgeKVStore(NewInProcessEdgeKV())
	assert.NoError(t, s.Close())
}

func TestInProcessEdgeKV_PutGetDelete(t *testing.T) {
	kv := NewInProcessEdgeKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), time.Minute))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	got, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInProcessEdgeKV_ExpiredReturnsNil(t *testing.T) {
	kv := NewInProcessEdgeKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
