package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/storefront/session"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricSessionValid)
	}
}

func BenchmarkMetricsIncDisabled(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricSessionValid)
	}
}

var mixedHotMetricIDs = [...]MetricID{
	MetricSessionValid,
	MetricSessionRejected,
	MetricCacheHit,
	MetricCacheMiss,
	MetricLoginSuccess,
	MetricLoginFailure,
	MetricCheckoutSuccess,
	MetricContactSent,
}

func BenchmarkMetricsIncMixedParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(mixedHotMetricIDs[idx])
			idx++
			if idx == len(mixedHotMetricIDs) {
				idx = 0
			}
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 12 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricAuthenticateLatency, d)
		}
	})
}

func BenchmarkMeOpaqueSession(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Password = testPasswordParams()
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	now := time.Now()
	user := session.User{ID: 1, Username: testUsername, Name: "Shop Admin"}.Stamp(now)
	jar := session.NewMemoryJar(nil)
	if _, err := engine.Authenticator().Issue(jar, user); err != nil {
		b.Fatalf("Issue: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if res := engine.Me(context.Background(), jar); !res.Success {
			b.Fatalf("Me = %+v", res)
		}
	}
}
