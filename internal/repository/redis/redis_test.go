package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("skipping Redis integration tests: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestGetOrSetJSONLoadsOnce(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	c := New(rdb)
	key := KeyZone(time.Now().UnixNano())
	t.Cleanup(func() { _ = c.Del(ctx, key) })

	calls := 0
	load := func(ctx context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"capacity": 4}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrSetJSON(ctx, c, key, time.Minute, load)
		if err != nil || v["capacity"] != 4 {
			t.Fatalf("GetOrSetJSON = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Cache
	v, err := GetOrSetJSON(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("nil cache = %v, %v", v, err)
	}
	if err := c.InvalidateZone(context.Background(), 1); err != nil {
		t.Fatalf("nil invalidate: %v", err)
	}
}

func TestSlidingWindowLimiter(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	l := NewSlidingWindowLimiter(rdb, "test-"+uuid.NewString(), 2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, _, _, err := l.Allow(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("hit %d rejected: %v", i, err)
		}
	}
	ok, _, retry, err := l.Allow(ctx, "u1")
	if err != nil || ok || retry <= 0 {
		t.Fatalf("third hit = %v, retry %s, err %v", ok, retry, err)
	}
	if ok, _, _, _ := l.Allow(ctx, "u2"); !ok {
		t.Fatalf("other keys must be independent")
	}
}

func TestKeyIdemHoldScopedByUser(t *testing.T) {
	alice := KeyIdemHold(7, "alice", "k1")
	if bob := KeyIdemHold(7, "bob", "k1"); bob == alice {
		t.Fatalf("users share idempotency key %q", alice)
	}
	if other := KeyIdemHold(8, "alice", "k1"); other == alice {
		t.Fatalf("zones share idempotency key %q", alice)
	}
	if KeyIdemHold(7, "alice", "k1") != alice {
		t.Fatalf("key is not stable")
	}
	// A separator inside the user id must not shift the key boundary.
	if KeyIdemHold(7, "a:b", "c") == KeyIdemHold(7, "a", "b:c") {
		t.Fatalf("user id separator collides")
	}
}

func TestIdempotencyBegin(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	s := NewIdempotencyStore(rdb, time.Minute)
	key := KeyIdemHold(1, "alice", uuid.NewString())
	t.Cleanup(func() { _ = s.Release(ctx, key) })

	st, _, err := s.Begin(ctx, key, time.Minute)
	if err != nil || st != IdemAcquired {
		t.Fatalf("first Begin = %v, %v", st, err)
	}
	if st, _, _ := s.Begin(ctx, key, time.Minute); st != IdemInProgress {
		t.Fatalf("second Begin = %v, want in progress", st)
	}
	if err := s.SaveResult(ctx, key, `{"id":"x"}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	st, payload, err := s.Begin(ctx, key, time.Minute)
	if err != nil || st != IdemReplay || payload != `{"id":"x"}` {
		t.Fatalf("replay = %v %q %v", st, payload, err)
	}
}

func TestLease(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	key := KeySweepLease() + ":" + uuid.NewString()

	a := NewLease(rdb, key, "a")
	b := NewLease(rdb, key, "b")

	if ok, err := a.Acquire(ctx, time.Minute); err != nil || !ok {
		t.Fatalf("a acquire = %v, %v", ok, err)
	}
	if ok, _ := b.Acquire(ctx, time.Minute); ok {
		t.Fatalf("b must not acquire a held lease")
	}
	if err := b.Release(ctx); err != nil {
		t.Fatalf("b release: %v", err)
	}
	if ok, _ := b.Acquire(ctx, time.Minute); ok {
		t.Fatalf("b's release must not drop a's lease")
	}
	if err := a.Release(ctx); err != nil {
		t.Fatalf("a release: %v", err)
	}
	if ok, _ := b.Acquire(ctx, time.Minute); !ok {
		t.Fatalf("b should acquire after a released")
	}
	_ = b.Release(ctx)
}

func TestPublishZoneChanged(t *testing.T) {
	rdb := newTestClient(t)
	ps := NewZonesPubSub(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got := make(chan int64, 1)
	go func() {
		_ = ps.Subscribe(ctx, func(ctx context.Context, zoneID int64) {
			select {
			case got <- zoneID:
			default:
			}
		})
	}()

	// Publish until the subscriber is attached.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case id := <-got:
			if id != 42 {
				t.Fatalf("zone id = %d", id)
			}
			return
		case <-tick.C:
			_ = ps.PublishZoneChanged(ctx, 42)
		case <-ctx.Done():
			t.Fatalf("no zone changed message received")
		}
	}
}
