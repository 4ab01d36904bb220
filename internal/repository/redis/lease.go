package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Only the holder may drop its lease.
const luaReleaseLease = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

// Lease is a best-effort lock with expiry so that one replica runs a
// recurring job per tick.
type Lease struct {
	rdb     *redis.Client
	key     string
	holder  string
	release *redis.Script
}

func NewLease(rdb *redis.Client, key, holder string) *Lease {
	return &Lease{
		rdb:     rdb,
		key:     key,
		holder:  holder,
		release: redis.NewScript(luaReleaseLease),
	}
}

// Acquire takes the lease for ttl. It reports false if another holder has it.
func (l *Lease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.holder, ttl).Result()
}

func (l *Lease) Release(ctx context.Context) error {
	return l.release.Run(ctx, l.rdb, []string{l.key}, l.holder).Err()
}
