// Package httpapi mounts the storefront Engine on a chi router.
//
// Every /api route shares CORS, request ids, structured request logging and
// panic recovery. Session cookies are read and written through
// session.HTTPCookieJar so handlers never touch cookie attributes directly.
//
// # What this package must NOT do
//
//   - Contain business rules. Validation, rate limiting and upstream mapping
//     belong to the Engine.
//   - Log request bodies. Login and registration bodies carry passwords.
package httpapi
