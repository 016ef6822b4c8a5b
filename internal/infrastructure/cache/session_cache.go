package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.SessionCache = (*SessionCache)(nil)

// SessionCache keeps session documents and member lists as JSON strings.
type SessionCache struct {
	redis     *redis.Client
	keyPrefix string
}

func NewSessionCache(client *redis.Client, keyPrefix string) *SessionCache {
	return &SessionCache{
		redis:     client,
		keyPrefix: keyPrefix,
	}
}

func (c *SessionCache) sessionKey(id string) string {
	return c.keyPrefix + "session:" + id
}

func (c *SessionCache) membersKey(id string) string {
	return c.keyPrefix + "session:" + id + ":members"
}

func (c *SessionCache) GetSession(ctx context.Context, id string) (*domain.Session, bool, error) {
	data, err := c.redis.Get(ctx, c.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", id, err)
	}

	return &s, true, nil
}

func (c *SessionCache) SetSession(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return c.redis.Del(ctx, c.sessionKey(session.ID)).Err()
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	if err := c.redis.Set(ctx, c.sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", session.ID, err)
	}
	return nil
}

func (c *SessionCache) GetMembers(ctx context.Context, sessionID string) ([]domain.Member, bool, error) {
	data, err := c.redis.Get(ctx, c.membersKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get members %s: %w", sessionID, err)
	}

	var members []domain.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, false, fmt.Errorf("decode members %s: %w", sessionID, err)
	}

	return members, true, nil
}

func (c *SessionCache) SetMembers(ctx context.Context, sessionID string, members []domain.Member, ttl time.Duration) error {
	if ttl <= 0 {
		return c.redis.Del(ctx, c.membersKey(sessionID)).Err()
	}
	if members == nil {
		members = []domain.Member{}
	}

	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode members %s: %w", sessionID, err)
	}

	if err := c.redis.Set(ctx, c.membersKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set members %s: %w", sessionID, err)
	}
	return nil
}

func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.redis.Del(ctx, c.sessionKey(sessionID), c.membersKey(sessionID)).Err()
}
