package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/commerce"
	"github.com/MrEthical07/storefront/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	sessions    int
	concurrency int
	ops         int
	pages       int
	redisAddr   string
}

func newLoadtestCmd() *cobra.Command {
	var o loadtestOptions
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure session checks and cached catalog reads in-process",
		Long: `loadtest builds an engine against Redis (or an embedded miniredis when no
address is given) and a stub catalog, then runs two phases: session checks
over pre-issued cookies and catalog reads through the response cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.sessions <= 0 || o.concurrency <= 0 || o.ops <= 0 || o.pages <= 0 {
				return fmt.Errorf("sessions, concurrency, ops and pages must be > 0")
			}
			if o.redisAddr == "" {
				o.redisAddr = os.Getenv("REDIS_ADDR")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.sessions, "sessions", 10000, "number of sessions to issue")
	f.IntVar(&o.concurrency, "concurrency", 64, "number of concurrent workers")
	f.IntVar(&o.ops, "ops", 100000, "operations per phase")
	f.IntVar(&o.pages, "pages", 16, "distinct catalog pages to cycle through")
	f.StringVar(&o.redisAddr, "redis-addr", "", "redis address; REDIS_ADDR or miniredis when empty")
	return cmd
}

// stubCatalog answers instantly so the products phase measures the cache.
type stubCatalog struct {
	calls atomic.Int64
}

func (s *stubCatalog) Products(_ context.Context, q commerce.ProductQuery) (commerce.ProductPage, error) {
	s.calls.Add(1)
	return commerce.ProductPage{
		Products: []commerce.Product{{ID: "gid://p/" + q.After, Title: "Load " + q.After, Handle: "load-" + q.After}},
		Count:    1,
	}, nil
}

func (s *stubCatalog) ProductByHandle(context.Context, string) (commerce.ProductDetail, error) {
	return commerce.ProductDetail{}, commerce.ErrProductNotFound
}

func (s *stubCatalog) CreateCart(context.Context, []cart.LineInput) (cart.CheckoutResult, error) {
	return cart.CheckoutResult{}, nil
}

func runLoadtest(ctx context.Context, out io.Writer, o loadtestOptions) error {
	var client redis.UniversalClient
	if o.redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		o.redisAddr = mr.Addr()
		fmt.Fprintf(out, "using miniredis at %s\n", o.redisAddr)
	} else {
		fmt.Fprintf(out, "using redis at %s\n", o.redisAddr)
	}
	client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{o.redisAddr}})
	defer func() { _ = client.Close() }()

	catalog := &stubCatalog{}
	cfg := storefront.DefaultConfig()
	cfg.Redis.Prefix = "sf-loadtest"
	engine, err := storefront.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCommerce(catalog).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	fmt.Fprintf(out, "issuing %d sessions...\n", o.sessions)
	jars := make([]*session.MemoryJar, o.sessions)
	now := time.Now()
	for i := range jars {
		jars[i] = session.NewMemoryJar(nil)
		u := session.User{ID: int64(i + 1), Username: "load-user-" + strconv.Itoa(i), Roles: []string{"subscriber"}}.Stamp(now)
		if _, err := engine.Authenticator().Issue(jars[i], u); err != nil {
			return fmt.Errorf("issue session: %w", err)
		}
	}

	meStats := runPhase(o.ops, o.concurrency, func(r *rand.Rand) bool {
		return engine.Me(ctx, jars[r.Intn(len(jars))]).Success
	})
	productStats := runPhase(o.ops, o.concurrency, func(r *rand.Rand) bool {
		_, err := engine.Products(ctx, commerce.ProductQuery{First: 12, After: strconv.Itoa(r.Intn(o.pages))})
		return err == nil
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "me", meStats)
	printStats(out, "products", productStats)
	fmt.Fprintf(out, "upstream catalog calls: %d\n", catalog.calls.Load())
	return nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
