package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 30 * time.Second

// Tracker records "recently active" markers. A missing marker means the
// member has been quiet for longer than the TTL; nothing is evicted.
type Tracker struct {
	redis     *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewTracker(client *redis.Client, keyPrefix string, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		redis:     client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (t *Tracker) key(sessionID, memberID string) string {
	return fmt.Sprintf("%spresence:%s:%s", t.keyPrefix, sessionID, memberID)
}

// Touch refreshes the marker for memberID.
func (t *Tracker) Touch(ctx context.Context, sessionID, memberID string) error {
	if sessionID == "" || memberID == "" {
		return nil
	}
	return t.redis.Set(ctx, t.key(sessionID, memberID), time.Now().UnixMilli(), t.ttl).Err()
}

// Clear drops the marker, e.g. after a member leaves.
func (t *Tracker) Clear(ctx context.Context, sessionID, memberID string) error {
	return t.redis.Del(ctx, t.key(sessionID, memberID)).Err()
}

// Online reports presence for each of memberIDs in a single round trip.
func (t *Tracker) Online(ctx context.Context, sessionID string, memberIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}

	pipe := t.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(memberIDs))
	for i, id := range memberIDs {
		cmds[i] = pipe.Exists(ctx, t.key(sessionID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, id := range memberIDs {
		out[id] = cmds[i].Val() == 1
	}
	return out, nil
}
