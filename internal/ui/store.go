package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"meetscribe/internal/redis"
)

// ErrSessionNotFound reports a missing or expired session token.
var ErrSessionNotFound = errors.New("session not found")

// DefaultSessionTTL bounds how long an idle session survives.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore persists per-connection session state. The memory store is
// the default; the redis store lets sessions survive restarts and be shared
// across replicas.
type SessionStore interface {
	Get(ctx context.Context, token string) (*Session, error)
	Put(ctx context.Context, token string, sess *Session) error
	Delete(ctx context.Context, token string) error
}

// memoryStore keeps sessions in a mutex-guarded map with a periodic expiry
// sweep.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *memoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &memoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (m *memoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok || sess.Expired(time.Now()) {
		delete(m.sessions, token)
		return nil, ErrSessionNotFound
	}
	// hand out a copy so handler mutations go through Put
	cp := *sess
	return &cp, nil
}

func (m *memoryStore) Put(_ context.Context, token string, sess *Session) error {
	if sess == nil {
		return errors.New("session required")
	}
	sess.ExpiresAt = time.Now().Add(m.ttl)
	cp := *sess
	m.mu.Lock()
	m.sessions[token] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// StartSweeper drops expired sessions on an interval until ctx is done.
func (m *memoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.mu.Lock()
				for token, sess := range m.sessions {
					if sess.Expired(now) {
						delete(m.sessions, token)
					}
				}
				m.mu.Unlock()
			}
		}
	}()
}

// redisStore serializes sessions as JSON values with a TTL.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "meetscribe:session:" + token
}

func (r *redisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (r *redisStore) Put(ctx context.Context, token string, sess *Session) error {
	if sess == nil {
		return errors.New("session required")
	}
	sess.ExpiresAt = time.Now().Add(r.ttl)
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(token), string(raw), r.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token))
}
