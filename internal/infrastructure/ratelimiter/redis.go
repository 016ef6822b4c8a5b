package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript sets the expiry only on the first hit of a window.
const incrScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`

type Redis struct {
	client *redis.Client
	script *redis.Script
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		script: redis.NewScript(incrScript),
	}
}

func (r *Redis) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	return r.script.Run(ctx, r.client, []string{key}, expiration.Milliseconds()).Int64()
}

// Close is a no-op; the client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
