// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package logsink captures the agent's own diagnostic log lines before
// any durable backend exists, buffers them, and relays them to
// registered backends in batches.
//
// The [Facility] is the process log facility: every diagnostic line
// the agent emits flows through it, either via [Facility.Emit] or via
// the slog handler returned by [Facility.Handler]. The facility
// delivers one callback per line, synchronously, on the emitting
// goroutine, to every registered [Sink], and optionally mirrors lines
// to a fallback console writer.
//
// The [BufferedSink] is the one sink that matters: it appends every
// delivered line to an ordered buffer and, when forwarding is enabled,
// triggers a relay that drains the buffer, serializes it, and
// dispatches one status batch per forwarding target through a
// [Dispatcher]. Relays run inline or on a background goroutine whose
// completion handle is queued for [BufferedSink.DrainPending].
//
// A [Disabler] suspends the sink and forces console fallback for the
// duration of a backend reconfiguration, restoring the prior state on
// Restore. This is how initialization swaps backends without losing
// buffered lines or creating a forwarding loop.
//
// The sink is an explicitly constructed, explicitly owned service
// object: the daemon creates exactly one and passes it by handle.
// Backends must never emit status lines synchronously from inside
// their own dispatch handling; a backend that logs through the same
// facility during dispatch can trigger an unbounded recursive relay.
// The sink cannot detect this; it is a contract on backends.
package logsink
