// Package mcp is the root of an RPC runtime for tool, resource and prompt servers.
//
// Peers exchange JSON-RPC 2.0 messages over a framed byte stream (stdin/stdout or a TCP/Unix
// socket). A server keeps registries of tools, resources and prompts and answers the reserved
// methods (initialize, tools/list, tools/call, resources/read and so on) for every connected
// peer; a client matches responses to its pending requests by identifier.
//
// # Sub-packages
//
//   - pkg/protocol: message types, identifiers, parsing and error codes
//   - pkg/registry: concurrent registries for tools, resources and prompts
//   - pkg/transport: stream and socket framing, middleware
//   - pkg/server: sessions, lifecycle and dispatch
//   - pkg/client: pending-request table, typed calls, batches and pools
//   - pkg/config: TOML, .env and environment configuration
//   - pkg/admin: HTTP health, metrics and session endpoints
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//   - pkg/logging: zap and logrus backends behind one interface
//   - pkg/errors: structured errors and their wire mapping
//
// This package re-exports the most common constructors.
//
// # Examples
//
//   - examples/echo-server: a server configured from a TOML file with the admin surface
//   - examples/echo-client: a client calling the echo tool concurrently
package mcp
