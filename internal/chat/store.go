package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkaydev/auto-shop/internal/models"
)

// ErrSessionNotFound is returned when a session id does not resolve.
var ErrSessionNotFound = errors.New("session not found")

// SessionTTL is how long an inactive session survives before the sweep
// removes it.
const SessionTTL = time.Hour

// SessionStore persists chat sessions. The Redis implementation survives
// restarts and is shared across instances; the in-memory implementation is
// the single-process fallback.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	Save(ctx context.Context, session *models.ChatSession) error
	Delete(ctx context.Context, id string) error
	// Cleanup deactivates sessions untouched for longer than the threshold
	// and removes sessions that were already deactivated. A session idle past
	// the threshold is therefore gone after two sweeps. Returns the number
	// removed.
	Cleanup(ctx context.Context, threshold time.Duration) (int, error)
}

// MemorySessionStore keeps sessions in a process-local map.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.ChatSession)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup deactivates stale sessions on one sweep and removes them on the
// next. Only stale sessions are touched; any new message reactivates a
// session before the collecting sweep reaches it.
func (s *MemorySessionStore) Cleanup(_ context.Context, threshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-threshold)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}
		if session.IsActive {
			session.IsActive = false
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed, nil
}

// RedisSessionStore keeps sessions as JSON documents under chat:sessions:*.
// Every save refreshes a hard expiry as a backstop for sessions the sweep
// never reaches.
type RedisSessionStore struct {
	client *redis.Client
}

// redisSessionExpiry bounds a session's life in Redis independent of the
// sweep.
const redisSessionExpiry = 24 * time.Hour

// NewRedisSessionStore connects a store over an existing client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string { return "chat:sessions:" + id }

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var session models.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, redisSessionExpiry).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Cleanup scans stored sessions and applies the same two-sweep
// deactivate-then-remove scheme as the in-memory store. The hard key expiry
// still bounds anything the scan misses.
func (s *RedisSessionStore) Cleanup(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-threshold)
	removed := 0
	iter := s.client.Scan(ctx, 0, sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var session models.ChatSession
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		if !session.UpdatedAt.Before(cutoff) {
			continue
		}
		if session.IsActive {
			session.IsActive = false
			if data, err := json.Marshal(&session); err == nil {
				s.client.Set(ctx, key, data, redisSessionExpiry)
			}
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}
