// Package rate provides Redis-backed fixed-window attempt counters for the
// storefront's abuse-prone endpoints.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:rl:<scope>:<subject>", where subject is a username or client IP.
//
// # What this package must NOT do
//
//   - Decide which subjects to count; the Engine picks usernames and IPs.
//   - Fail open silently; Redis errors surface as ErrRedisUnavailable.
package rate
