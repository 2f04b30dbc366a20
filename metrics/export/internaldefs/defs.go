package internaldefs

import (
	storefront "github.com/MrEthical07/storefront"
)

// CounterDef binds a storefront counter to its exported name.
type CounterDef struct {
	ID   storefront.MetricID
	Name string
	Help string
}

// HistogramDef binds a storefront latency histogram to its exported name.
type HistogramDef struct {
	ID   storefront.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: storefront.MetricLoginSuccess, Name: "storefront_login_success_total", Help: "Successful logins."},
	{ID: storefront.MetricLoginFailure, Name: "storefront_login_failure_total", Help: "Failed logins."},
	{ID: storefront.MetricLoginRateLimited, Name: "storefront_login_rate_limited_total", Help: "Logins rejected by the rate limiter."},
	{ID: storefront.MetricLogout, Name: "storefront_logout_total", Help: "Logouts."},
	{ID: storefront.MetricSessionValid, Name: "storefront_session_valid_total", Help: "Session checks that resolved a user."},
	{ID: storefront.MetricSessionRejected, Name: "storefront_session_rejected_total", Help: "Session checks rejected for an invalid, expired or mismatched cookie."},
	{ID: storefront.MetricSessionRefreshed, Name: "storefront_session_refreshed_total", Help: "Identity snapshots refreshed from the CMS."},
	{ID: storefront.MetricSessionRefreshFailed, Name: "storefront_session_refresh_failed_total", Help: "Snapshot refreshes that fell back to the cached identity."},
	{ID: storefront.MetricRegisterSuccess, Name: "storefront_register_success_total", Help: "Successful registrations."},
	{ID: storefront.MetricRegisterFailure, Name: "storefront_register_failure_total", Help: "Failed registrations."},
	{ID: storefront.MetricRegisterRateLimited, Name: "storefront_register_rate_limited_total", Help: "Registrations rejected by the rate limiter."},
	{ID: storefront.MetricContactSent, Name: "storefront_contact_sent_total", Help: "Contact messages delivered."},
	{ID: storefront.MetricContactSimulated, Name: "storefront_contact_simulated_total", Help: "Contact messages accepted without a configured mail provider."},
	{ID: storefront.MetricContactFailure, Name: "storefront_contact_failure_total", Help: "Contact messages the mail provider rejected."},
	{ID: storefront.MetricContactRateLimited, Name: "storefront_contact_rate_limited_total", Help: "Contact and booking requests rejected by the rate limiter."},
	{ID: storefront.MetricBookingSent, Name: "storefront_booking_sent_total", Help: "Booking requests delivered."},
	{ID: storefront.MetricCheckoutSuccess, Name: "storefront_checkout_success_total", Help: "Checkouts created."},
	{ID: storefront.MetricCheckoutFailure, Name: "storefront_checkout_failure_total", Help: "Checkouts that failed."},
	{ID: storefront.MetricCacheHit, Name: "storefront_cache_hit_total", Help: "Catalog and content reads served from cache."},
	{ID: storefront.MetricCacheMiss, Name: "storefront_cache_miss_total", Help: "Catalog and content reads that went upstream."},
	{ID: storefront.MetricUpstreamError, Name: "storefront_upstream_error_total", Help: "Commerce or CMS calls that failed."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: storefront.MetricAuthenticateLatency, Name: "storefront_authenticate_latency_seconds", Help: "Session authentication latency."},
	{ID: storefront.MetricUpstreamLatency, Name: "storefront_upstream_latency_seconds", Help: "Commerce and CMS call latency."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to exactly eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
