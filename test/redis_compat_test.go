//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/internal/cache"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/password"
	"github.com/MrEthical07/storefront/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes always includes miniredis. REDIS_ADDR adds a standalone
// server, REDIS_CLUSTER_ADDRS a cluster, and REDIS_SENTINEL_ADDRS a
// sentinel-managed primary.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) (redis.UniversalClient, func()) {
			t.Helper()
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return rdb, func() { _ = rdb.Close(); mr.Close() }
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				return pinged(t, redis.NewClient(&redis.Options{Addr: addr}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				return pinged(t, redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)}))
			},
		})
	}
	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				return pinged(t, redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: splitAddrs(addrs),
				}))
			},
		})
	}
	return modes
}

func pinged(t *testing.T, rdb redis.UniversalClient) (redis.UniversalClient, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis unreachable: %v", err)
	}
	return rdb, func() { _ = rdb.Close() }
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// testPrefix isolates keys when several runs share one server.
func testPrefix() string {
	return "sf-test-" + uuid.NewString()[:8]
}

func TestRedisCompatLimiterWindow(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()
			ctx := context.Background()

			l := rate.New(rdb, testPrefix(), map[rate.Scope]rate.Policy{
				rate.ScopeLogin: {Limit: 2, Window: time.Minute},
			})
			for i := 0; i < 2; i++ {
				if _, err := l.Hit(ctx, rate.ScopeLogin, "10.0.0.1"); err != nil {
					t.Fatalf("hit %d: %v", i, err)
				}
			}
			if err := l.Check(ctx, rate.ScopeLogin, "10.0.0.1"); !errors.Is(err, rate.ErrRateLimited) {
				t.Fatalf("expected ErrRateLimited, got %v", err)
			}
			if err := l.Check(ctx, rate.ScopeLogin, "10.0.0.2"); err != nil {
				t.Fatalf("other subject should pass: %v", err)
			}
			if err := l.Reset(ctx, rate.ScopeLogin, "10.0.0.1"); err != nil {
				t.Fatalf("reset: %v", err)
			}
			if n, err := l.Attempts(ctx, rate.ScopeLogin, "10.0.0.1"); err != nil || n != 0 {
				t.Fatalf("attempts after reset = %d, %v", n, err)
			}
		})
	}
}

func TestRedisCompatCacheRoundTrip(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()
			ctx := context.Background()

			c := cache.New(rdb, testPrefix(), nil)
			in := map[string]any{"handle": "mug", "price": "12.50"}
			if err := c.Set(ctx, "product:mug", in, time.Minute); err != nil {
				t.Fatalf("set: %v", err)
			}
			var out map[string]any
			found, err := c.Get(ctx, "product:mug", &out)
			if err != nil || !found || out["price"] != "12.50" {
				t.Fatalf("get = %v, %v, %v", out, found, err)
			}
			if err := c.Delete(ctx, "product:mug"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if found, _ := c.Get(ctx, "product:mug", &out); found {
				t.Fatal("expected miss after delete")
			}
		})
	}
}

func TestRedisCompatLoginLockout(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			cfg := storefront.DefaultConfig()
			cfg.Redis.Prefix = testPrefix()
			cfg.RateLimit.LoginAttempts = 2
			cfg.Password = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
			hasher, err := password.NewHasher(cfg.Password)
			if err != nil {
				t.Fatalf("NewHasher: %v", err)
			}
			hash, err := hasher.Hash(adminPassword)
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}

			engine, err := storefront.New().
				WithConfig(cfg).
				WithRedis(rdb).
				WithCredentials([]password.Credential{{ID: 1, Username: "shopadmin", Name: "Shop Admin", Hash: hash}}).
				Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			defer engine.Close()

			ctx := storefront.WithClientIP(context.Background(), "203.0.113.9")
			for i := 0; i < 2; i++ {
				_, err := engine.Login(ctx, session.NewMemoryJar(nil), "shopadmin", "wrong-password")
				if !errors.Is(err, storefront.ErrInvalidCredentials) {
					t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
				}
			}
			_, err = engine.Login(ctx, session.NewMemoryJar(nil), "shopadmin", adminPassword)
			if !errors.Is(err, storefront.ErrRateLimited) {
				t.Fatalf("expected ErrRateLimited, got %v", err)
			}
		})
	}
}
