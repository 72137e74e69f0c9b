package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	agentauth "github.com/agentauth/engine"
)

// EdgeKV is the narrow shape most edge key-value offerings expose at their
// binding layer (Cloudflare Workers KV being the canonical example):
// Put/Get/Delete with a per-key expiration TTL. Real deployments reach these
// over the vendor's own HTTP or WASM binding rather than a portable Go
// client, so EdgeKVStore below is written against this interface and an
// in-process implementation, not a specific vendor SDK.
type EdgeKV interface {
	Put(ctx context.Context, key string, value []byte, expirationTTL time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// EdgeKVStore adapts an EdgeKV binding to the Store interface.
type EdgeKVStore struct {
	kv EdgeKV
}

// NewEdgeKVStore wraps an EdgeKV binding as a Store.
func NewEdgeKVStore(kv EdgeKV) *EdgeKVStore {
	return &EdgeKVStore{kv: kv}
}

// Set stores a challenge record with a TTL in seconds.
func (s *EdgeKVStore) Set(ctx context.Context, id string, record *agentauth.ChallengeRecord, ttlSeconds int64) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling challenge record: %w", err)
	}
	return s.kv.Put(ctx, id, data, time.Duration(ttlSeconds)*time.Second)
}

// Get retrieves a challenge record by id, returning nil if not found.
func (s *EdgeKVStore) Get(ctx context.Context, id string) (*agentauth.ChallengeRecord, error) {
	data, err := s.kv.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching challenge record: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var record agentauth.ChallengeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge record: %w", err)
	}
	return &record, nil
}

// Delete removes a challenge record by id.
func (s *EdgeKVStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, id)
}

// Close is a no-op: edge KV bindings have no connection to tear down.
func (s *EdgeKVStore) Close() error {
	return nil
}

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// InProcessEdgeKV is a reference EdgeKV implementation for local development
// and tests, since no portable Go client exists for any edge vendor's KV
// service. It never leaves the process.
type InProcessEdgeKV struct {
	mu      sync.RWMutex
	entries map[string]kvEntry
}

// NewInProcessEdgeKV creates an empty InProcessEdgeKV.
func NewInProcessEdgeKV() *InProcessEdgeKV {
	return &InProcessEdgeKV{entries: make(map[string]kvEntry)}
}

// Put stores value under key, expiring it after expirationTTL.
func (k *InProcessEdgeKV) Put(_ context.Context, key string, value []byte, expirationTTL time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[key] = kvEntry{value: value, expiresAt: time.Now().Add(expirationTTL)}
	return nil
}

// Get returns the value stored under key, or nil if absent or expired.
func (k *InProcessEdgeKV) Get(_ context.Context, key string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	return e.value, nil
}

// Delete removes key.
func (k *InProcessEdgeKV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, key)
	return nil
}
