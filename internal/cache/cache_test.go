package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type page struct {
	Items []string `json:"items"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache, *[]error) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var errs []error
	return mr, New(client, "sf", func(_ string, err error) { errs = append(errs, err) }), &errs
}

func TestLoadCachesUntilExpiry(t *testing.T) {
	mr, c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Items: []string{"frog"}}, nil
	}

	if _, hit, err := Load(ctx, c, "products:first=10", time.Minute, load); err != nil || hit {
		t.Fatalf("first load hit=%v err=%v", hit, err)
	}
	got, hit, err := Load(ctx, c, "products:first=10", time.Minute, load)
	if err != nil || !hit || got.Items[0] != "frog" || calls != 1 {
		t.Fatalf("second load = %+v hit=%v err=%v calls=%d", got, hit, err, calls)
	}
	if !mr.Exists("sf:cache:products:first=10") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := Load(ctx, c, "products:first=10", time.Minute, load); hit || calls != 2 {
		t.Fatalf("expected reload after expiry, hit=%v calls=%d", hit, calls)
	}
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	_, c, _ := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("upstream down")

	if _, _, err := Load(ctx, c, "k", time.Minute, func(context.Context) (page, error) { return page{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	var dst page
	if hit, _ := c.Get(ctx, "k", &dst); hit {
		t.Fatal("error result was cached")
	}
}

func TestLoadFallsThroughWhenRedisDown(t *testing.T) {
	mr, c, errs := newTestCache(t)
	mr.Close()

	got, hit, err := Load(context.Background(), c, "k", time.Minute, func(context.Context) (page, error) {
		return page{Items: []string{"x"}}, nil
	})
	if err != nil || hit || len(got.Items) != 1 {
		t.Fatalf("Load = %+v hit=%v err=%v", got, hit, err)
	}
	if len(*errs) == 0 {
		t.Fatal("expected redis errors to be reported")
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	got, hit, err := Load(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	if err != nil || hit || got != 7 {
		t.Fatalf("nil cache Load = %d hit=%v err=%v", got, hit, err)
	}
}
