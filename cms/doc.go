// Package cms talks to the WordPress content backend over its REST API
// (users) and WPGraphQL (posts, categories, passthrough queries), always
// authenticating with an application password.
//
// [Client] satisfies session.Directory, so it doubles as the user directory
// that refreshes cached session snapshots.
package cms
