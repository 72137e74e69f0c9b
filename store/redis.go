package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a shared Redis instance, for deployments
// that run the engine across multiple replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore parses redisURL (redis://host:port/db) and returns a
// RedisStore, pinging the server once to fail fast on a bad connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "agentauth:challenge:"}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Set stores a challenge record with a TTL in seconds.
func (s *RedisStore) Set(ctx context.Context, id string, record *agentauth.ChallengeRecord, ttlSeconds int64) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling challenge record: %w", err)
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing challenge record: %w", err)
	}
	return nil
}

// Get retrieves a challenge record by id, returning nil if not found or expired.
func (s *RedisStore) Get(ctx context.Context, id string) (*agentauth.ChallengeRecord, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching challenge record: %w", err)
	}
	var record agentauth.ChallengeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling challenge record: %w", err)
	}
	return &record, nil
}

// Delete removes a challenge record by id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting challenge record: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
