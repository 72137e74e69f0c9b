package store

import (
	"context"
	"sync"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/robfig/cron/v3"
)

type memoryEntry struct {
	record    *agentauth.ChallengeRecord
	expiresAt int64
}

// MemoryStore is an in-memory Store with TTL-based expiry, backed by a
// periodic sweeper that evicts expired entries proactively instead of
// relying solely on lazy expiry at Get time.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	cron    *cron.Cron
}

// NewMemoryStore creates a MemoryStore and starts its background sweeper,
// which runs every minute and deletes anything past its expiry.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{entries: make(map[string]*memoryEntry)}

	c := cron.New(cron.WithSeconds())
	_, _ = c.AddFunc("0 * * * * *", s.sweep)
	c.Start()
	s.cron = c

	return s
}

func (s *MemoryStore) sweep() {
	now := time.Now().UnixMilli()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now > e.expiresAt {
			delete(s.entries, id)
		}
	}
}

// Set stores a challenge record with a TTL in seconds.
func (s *MemoryStore) Set(_ context.Context, id string, record *agentauth.ChallengeRecord, ttlSeconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &memoryEntry{
		record:    record,
		expiresAt: time.Now().UnixMilli() + ttlSeconds*1000,
	}
	return nil
}

// Get retrieves a challenge record by id, returning nil if not found or expired.
func (s *MemoryStore) Get(_ context.Context, id string) (*agentauth.ChallengeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || time.Now().UnixMilli() > e.expiresAt {
		return nil, nil
	}
	return e.record, nil
}

// Delete removes a challenge record by id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() error {
	ctx := s.cron.Stop()
	<-ctx.Done()
	return nil
}
