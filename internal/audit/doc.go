// Package audit delivers storefront audit events to pluggable sinks.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, structured log, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: one record with timestamp, type, user, IP and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Engine decides which events
// to emit and what they carry.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import the storefront root package or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
