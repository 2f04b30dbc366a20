// Package cart implements the client-resident shopping cart: a list of line items keyed by
// variant id, write-through persistence to a single durable storage slot, derived totals, and
// the checkout handoff to an external cart-creation API.
//
// # Storage
//
// The cart is serialized as a JSON array of [Line] objects under one key. Reads go through
// [Normalize], which never fails: corrupted or foreign data degrades to an empty cart.
//
// # Architecture boundaries
//
// A [Store] is owned by exactly one client session and is not safe for concurrent use. It
// never talks to the network except through the [CartCreator] passed at construction.
//
// # What this package must NOT do
//
//   - Hold package-level cart state.
//   - Overwrite line metadata when the same variant is added twice.
//   - Clear the cart as a side effect of checkout.
package cart
