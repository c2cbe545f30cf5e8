// Package session implements the server-side session store on Redis.
//
// Each session is a hash under "session:<id>" whose TTL is the inactivity
// timeout. A pointer key "user_session:<userID>" records the single live
// session for a user so that a new login can evict the previous one.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danhyun/simpleshop/internal/domain"
)

const (
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user_session:"
)

// RedisStore implements domain.SessionStore on a Redis client.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a session store with the given inactivity timeout.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Create issues a new session for the user, evicting the user's previous
// session first so that at most one session per identity stays live.
func (s *RedisStore) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	userKey := userKeyPrefix + strconv.FormatInt(userID, 10)

	// Evict the previous session for this user, if any.
	prev, err := s.rdb.Get(ctx, userKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: lookup previous session: %v", domain.ErrUnavailable, err)
	}
	if prev != "" {
		if err := s.rdb.Del(ctx, sessionKeyPrefix+prev).Err(); err != nil {
			return nil, fmt.Errorf("%w: evict previous session: %v", domain.ErrUnavailable, err)
		}
	}

	now := time.Now().UTC()
	key := sessionKeyPrefix + id

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"user_id", strconv.FormatInt(userID, 10),
		"created_at", now.Format(time.RFC3339Nano),
		"last_access", now.Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Set(ctx, userKey, id, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", domain.ErrUnavailable, err)
	}

	return &domain.Session{ID: id, UserID: userID, CreatedAt: now, LastAccessAt: now}, nil
}

// Get resolves a session by id. Absent and expired sessions both return
// ErrNotFound; Redis failures return ErrUnavailable.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", domain.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse session user_id: %w", err)
	}

	sess := &domain.Session{ID: id, UserID: userID}
	sess.CreatedAt = parseSessionTime(id, "created_at", fields["created_at"])
	sess.LastAccessAt = parseSessionTime(id, "last_access", fields["last_access"])
	return sess, nil
}

// Touch refreshes the session's last-access time and slides its TTL.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	key := sessionKeyPrefix + id

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: touch session: %v", domain.ErrUnavailable, err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "last_access", time.Now().UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: touch session: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// Invalidate removes a session. Removing an absent session is a no-op.
func (s *RedisStore) Invalidate(ctx context.Context, id string) error {
	key := sessionKeyPrefix + id

	// Clear the user pointer only if it still points at this session.
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: invalidate session: %v", domain.ErrUnavailable, err)
	}
	if uid, ok := fields["user_id"]; ok {
		userKey := userKeyPrefix + uid
		current, err := s.rdb.Get(ctx, userKey).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("%w: invalidate session: %v", domain.ErrUnavailable, err)
		}
		if current == id {
			if err := s.rdb.Del(ctx, userKey).Err(); err != nil {
				return fmt.Errorf("%w: invalidate session: %v", domain.ErrUnavailable, err)
			}
		}
	}

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: invalidate session: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// parseSessionTime decodes a timestamp field from the session hash. A
// corrupted field still resolves the session (identity lives in user_id)
// but is logged so a damaged hash does not go unnoticed.
func parseSessionTime(id, field, value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		slog.Warn("malformed session timestamp", "session_id", id, "field", field, "error", err)
		return time.Time{}
	}
	return t
}

// generateSessionID returns a cryptographically random 256-bit identifier.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
