// Package store holds the pluggable backends that persist challenge
// records between init and solve. A challenge is single-use: the engine
// calls Delete on the first solve attempt that passes the HMAC check,
// whether the answer is right or wrong. Attempts with an invalid HMAC, and
// records that expire unsolved, never reach Delete.
package store

import (
	"context"

	agentauth "github.com/agentauth/engine"
)

// Store is the engine's persistence boundary for challenge records.
type Store interface {
	// Set stores a challenge record under id for ttlSeconds.
	Set(ctx context.Context, id string, record *agentauth.ChallengeRecord, ttlSeconds int64) error
	// Get retrieves a challenge record by id. A nil record with a nil error
	// means not found or expired.
	Get(ctx context.Context, id string) (*agentauth.ChallengeRecord, error)
	// Delete removes a challenge record by id.
	Delete(ctx context.Context, id string) error
	// Close releases any resources held by the store.
	Close() error
}
