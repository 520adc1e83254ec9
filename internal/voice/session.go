package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore remembers the fingerprint of the last audio chunk seen per
// session so repeated chunks from a looping client are processed once.
type SessionStore interface {
	// Seen reports whether fingerprint matches the last value stored for the
	// session, and records it as the new last value.
	Seen(ctx context.Context, sessionID, fingerprint string) (bool, error)
}

const sessionTTL = 10 * time.Minute

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore backs session dedup with Redis so multiple API
// instances share the same view of a session.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Seen(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	key := "voice:session:" + sessionID
	prev, err := s.client.GetSet(ctx, key, fingerprint).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("voice session lookup: %w", err)
	}
	if expErr := s.client.Expire(ctx, key, sessionTTL).Err(); expErr != nil {
		return false, fmt.Errorf("voice session expire: %w", expErr)
	}
	return err == nil && prev == fingerprint, nil
}

type memorySessionStore struct {
	mu   sync.Mutex
	last map[string]string
}

// NewMemorySessionStore is the single-process fallback used when no Redis
// address is configured.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{last: make(map[string]string)}
}

func (s *memorySessionStore) Seen(ctx context.Context, sessionID, fingerprint string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.last[sessionID]
	s.last[sessionID] = fingerprint
	return ok && prev == fingerprint, nil
}
