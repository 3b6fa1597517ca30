// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Warden-daemon is the host-instrumentation agent's long-running
// service. This binary wires together the status-log layer: the
// capture facility hooks the process's own slog output, the buffered
// sink holds captured lines, and the configured backends receive
// relayed batches.
//
// Data flow:
//
//	slog → facility → buffered sink → relay → backend dispatch (status batches)
//
// In daemon mode the sink never relays per message; instead the drain
// loop calls Relay and DrainPending every --relay-interval (default
// 3s). Backends are configured as a comma-separated name list; the
// first is elected primary. Built-in backends:
//
//   - filesystem: appends status/result/snapshot lines to files under
//     --log-dir, rotating and gzip-compressing files that exceed
//     --max-log-size.
//   - console: writes formatted lines to stdout.
//
// Remote backends are configured as name=socket pairs via
// --remote-backend and are reached over their backend server socket.
package main
