// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package logplugin defines the backend plugin contract for Warden's
// status-log layer and the dispatch protocol that carries log traffic
// to backends.
//
// A [Backend] is a pluggable log destination (file, console, remote
// service). Backends are discovered by name in a [Registry] and
// addressed through a [Dispatcher], whose Call method speaks the wire
// protocol: a flat string-to-string [Request] whose present keys
// select the verb, resolved in a fixed priority order (string,
// snapshot, init, status, event, then action=features).
//
// Capability negotiation is explicit: the features verb answers with
// a [Capabilities] value stating whether the backend accepts batched
// status logs and structured events. Initialization ([InitBackends])
// uses the answer to decide which backends become forwarding targets
// for the buffered sink and which register as event forwarders.
//
// When a configuration restricts secondary backends to status logs,
// string and snapshot requests to a non-primary backend short-circuit
// with [ErrSecondaryStatusOnly] before reaching backend logic.
// Status, init, and event requests are never gated.
//
// [RemoteBackend] and [BackendServer] extend the contract across a
// process boundary: a CBOR request/response exchange over a Unix
// socket, one request per connection. A remote backend never observes
// the primary election and therefore always treats itself as primary.
package logplugin
