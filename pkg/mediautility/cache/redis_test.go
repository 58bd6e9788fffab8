package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

func newMiniredisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return mr, store
}

func TestRedisStoreGetSet(t *testing.T) {
	ctx := context.Background()
	mr, store := newMiniredisStore(t)

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) = %v, %v", found, err)
	}
	if err := store.Set(ctx, "youtube-x-0", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, found, err := store.Get(ctx, "youtube-x-0")
	if err != nil || !found || string(got) != "{}" {
		t.Fatalf("Get = %q, %v, %v", got, found, err)
	}

	// no expiry
	if ttl := mr.TTL("youtube-x-0"); ttl != 0 {
		t.Errorf("TTL = %s, want none", ttl)
	}
}

func TestRedisStoreBareHost(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisStoreServerErrorIsNotUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, store := newMiniredisStore(t)
	mr.Lpush("list", "x")

	_, _, err := store.Get(ctx, "list")
	if err == nil {
		t.Fatal("expected WRONGTYPE")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("server reply classified as unavailable: %v", err)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStoreWithClient(client)
	defer store.Close()

	if err := store.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestResultCacheWithRedis(t *testing.T) {
	ctx := context.Background()
	mr, store := newMiniredisStore(t)
	c := New(Config{Primary: store})

	c.StoreIdentified(ctx, "youtube-y6120QOlsfU-0", sandstorm)
	if !mr.Exists("youtube-y6120QOlsfU-0") {
		t.Fatal("entry not written to redis")
	}
	if got := c.Lookup(ctx, "youtube-y6120QOlsfU-0"); got.Kind != models.OutcomeIdentified {
		t.Errorf("expected identified, got %v", got.Kind)
	}
}

func TestResultCacheDegradesWhenRedisGoesAway(t *testing.T) {
	ctx := context.Background()
	mr, store := newMiniredisStore(t)

	degraded := make(chan error, 1)
	c := New(Config{Primary: store, OnDegraded: func(err error) { degraded <- err }})

	c.StoreNoMatch(ctx, "soundcloud-1-0")
	if c.Degraded() {
		t.Fatal("should be using redis")
	}

	mr.Close()

	c.StoreIdentified(ctx, "soundcloud-2-0", sandstorm)
	select {
	case err := <-degraded:
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("hook got %v", err)
		}
	default:
		t.Fatal("OnDegraded not called")
	}

	if got := c.Lookup(ctx, "soundcloud-2-0"); got.Kind != models.OutcomeIdentified {
		t.Errorf("fallback should hold the failed write, got %v", got.Kind)
	}
	// entries that only lived in redis are gone with it
	if got := c.Lookup(ctx, "soundcloud-1-0"); got.Kind != models.OutcomeUnknown {
		t.Errorf("expected unknown, got %v", got.Kind)
	}
}

func TestResultCacheUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	c := New(Config{Primary: NewRedisStoreWithClient(client)})
	defer c.Close()

	ctx := context.Background()
	c.StoreNoMatch(ctx, "k")
	if !c.Degraded() {
		t.Fatal("expected degradation after a failed ping")
	}
	if got := c.Lookup(ctx, "k"); got.Kind != models.OutcomeNoMatch {
		t.Errorf("expected no match from the fallback, got %v", got.Kind)
	}
}
