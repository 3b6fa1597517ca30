// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import "github.com/wardenhq/warden/lib/statuslog"

// Capabilities states which optional log streams a backend accepts.
// It is the typed answer to the features query; a backend that
// accepts neither stream can still receive string and snapshot
// requests.
type Capabilities struct {
	// Status: the backend accepts batched status-log entries and may
	// be registered as a forwarding target for the buffered sink.
	Status bool

	// Event: the backend accepts structured event records and may be
	// registered with the event-forwarding subsystem.
	Event bool
}

// Backend is a pluggable destination for the agent's logs. All
// methods must be safe for concurrent use; dispatch does not
// serialize calls to a backend.
//
// A backend must not emit status lines synchronously from inside any
// of these methods: its output would re-enter the buffered sink and
// can trigger an unbounded recursive relay.
type Backend interface {
	// Init is called once per initialization pass, before any other
	// verb, carrying the process name and the entries captured
	// before this backend existed.
	Init(processName string, buffered []statuslog.Entry) error

	// Capabilities answers the features query.
	Capabilities() Capabilities

	// LogString persists one free-form result line.
	LogString(message string) error

	// LogStatus persists a batch of status-log entries, in the order
	// given. Batches from concurrent relays may overlap or arrive
	// out of order; backends must tolerate both.
	LogStatus(entries []statuslog.Entry) error

	// LogSnapshot persists a complete point-in-time result set.
	LogSnapshot(snapshot string) error

	// LogEvent persists one structured event record.
	LogEvent(event string) error
}
