// Package session decides whether a request carries an authenticated storefront session.
//
// # Token formats
//
// The auth-token cookie holds one of two formats, decoded once by [ParseToken]:
//
//   - [SignedToken]: a JWT verified against the server secret, no lookup needed.
//   - [OpaqueToken]: base64("username:issuedAtMillis"), paired with a user-data
//     cookie that caches the identity snapshot and is periodically refreshed
//     from the user [Directory].
//
// # Architecture boundaries
//
// The [Authenticator] only reads and writes cookies through a [CookieJar] and
// only talks to the outside world through [Verifier] and [Directory]. It keeps
// no state between requests.
//
// # What this package must NOT do
//
//   - Return an error to the caller of Authenticate; every failure degrades to
//     an unauthenticated [Result] with both cookies cleared.
//   - Retry directory refreshes.
package session
