// Package storefront is the server side of a headless storefront: cookie
// sessions, catalog and checkout against a commerce Storefront API, editorial
// content and registration against a WordPress site, and contact mail.
//
// An [Engine] is assembled once through [Builder.Build] and is safe for
// concurrent use afterwards. HTTP concerns live in internal/httpapi; the
// Engine only sees a [session.CookieJar].
//
// # Architecture boundaries
//
// storefront is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (MetricsSnapshot, AuditEvent, Stats). Upstream clients live
// in their own packages (commerce, cms, mail) and rate limiting, caching and
// audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or cache keys in its public API.
//   - Hold per-user server-side session state; sessions travel in cookies.
//   - Import internal/httpapi or any package that re-imports storefront.
package storefront
