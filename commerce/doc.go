// Package commerce is a thin client for the commerce platform's Storefront
// GraphQL API: product listing, product detail, and cart creation for
// checkout.
//
// Responses are reshaped into flat, JSON-friendly structs; callers never see
// the edges/node envelope.
//
// # What this package must NOT do
//
//   - Retry failed calls.
//   - Cache responses; the Engine layers caching on top.
package commerce
