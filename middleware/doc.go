// Package middleware exposes HTTP guards over the storefront cookie session.
//
// # Guards
//
//   - [RequireUser] resolves the session through a [SessionChecker] and
//     attaches the user to the request context.
//   - [RequireRole] gates a route on a role of the attached user.
//
// Rejections are JSON bodies of the form {"success":false,"message":...}.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into session checks. Token parsing,
// snapshot refresh and cookie clearing belong to the authenticator.
//
// # What this package must NOT do
//
//   - Parse or issue tokens.
//   - Call upstream services directly.
package middleware
