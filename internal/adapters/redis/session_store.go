package redis

// Package redis provides Redis-based adapters for session persistence and
// cross-process session events.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/ports"
)

const (
	defaultSessionPrefix = "session:"
	defaultSessionTTL    = 30 * 24 * time.Hour
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStoreOptions configures a SessionStore.
type SessionStoreOptions struct {
	Prefix string
	// TTL bounds how long a session stays restorable. The access token may
	// expire earlier; a stored refresh token keeps the session usable.
	TTL time.Duration
}

// SessionStore persists the current gateway session in Redis as JSON.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, key string, sess domainauth.Session) error {
	if key == "" {
		return apperrors.ValidationField("key", "session key cannot be empty")
	}
	if sess.RefreshToken == "" && sess.Expired(time.Now()) {
		// Nothing could restore it.
		return apperrors.Validation("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (domainauth.Session, error) {
	if key == "" {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, apperrors.NotFound("session not found")
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
