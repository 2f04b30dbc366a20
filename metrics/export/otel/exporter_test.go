package otel

import (
	"context"
	"sync"
	"testing"

	storefront "github.com/MrEthical07/storefront"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot storefront.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() storefront.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := storefront.MetricsSnapshot{
		Counters:   make(map[storefront.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[storefront.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("storefront-test")

	src := &fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters: map[storefront.MetricID]uint64{
				storefront.MetricLoginSuccess: 3,
			},
			Histograms: map[storefront.MetricID][]uint64{
				storefront.MetricAuthenticateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	got := map[string]int64{}
	buckets := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					got[m.Name] = data.DataPoints[0].Value
				}
			case metricdata.Gauge[int64]:
				if m.Name == "storefront_authenticate_latency_seconds_bucket" {
					for _, dp := range data.DataPoints {
						le, _ := dp.Attributes.Value(attribute.Key("le"))
						buckets[le.AsString()] = dp.Value
					}
					continue
				}
				if len(data.DataPoints) > 0 {
					got[m.Name] = data.DataPoints[0].Value
				}
			}
		}
	}
	if len(buckets) != 8 || buckets["0.005"] != 1 || buckets["0.1"] != 5 || buckets["+Inf"] != 8 {
		t.Fatalf("authenticate latency buckets = %v", buckets)
	}
	if got["storefront_login_success_total"] != 3 {
		t.Fatalf("login success = %d", got["storefront_login_success_total"])
	}
	if got["storefront_authenticate_latency_seconds_count"] != 8 {
		t.Fatalf("authenticate latency count = %d", got["storefront_authenticate_latency_seconds_count"])
	}
	if got["storefront_audit_dropped_total"] != 1 {
		t.Fatalf("audit dropped = %d", got["storefront_audit_dropped_total"])
	}
}

func TestExporterRejectsNilMeter(t *testing.T) {
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("err = %v, want ErrNilMeter", err)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("storefront-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("storefront-test")

	src := &fakeSource{
		snapshot: storefront.MetricsSnapshot{
			Counters: map[storefront.MetricID]uint64{
				storefront.MetricLoginSuccess: 1,
			},
			Histograms: map[storefront.MetricID][]uint64{
				storefront.MetricAuthenticateLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[storefront.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
