// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wardenhq/warden/lib/clock"
	"github.com/wardenhq/warden/lib/statuslog"
)

// ToolMode tells the sink how the host process runs. A long-running
// daemon drains the buffer on its own schedule, so per-message relays
// would only create dispatch storms; interactive and one-shot
// invocations relay as lines arrive.
type ToolMode int

const (
	// ModeInteractive is a one-shot or shell invocation. Captured
	// lines trigger a relay per message while forwarding is enabled.
	ModeInteractive ToolMode = iota
	// ModeDaemon is a long-running service whose scheduler calls
	// Relay and DrainPending periodically.
	ModeDaemon
)

// Dispatcher delivers one serialized status batch to one named
// backend. Implemented by the plugin dispatch layer; faked in tests.
type Dispatcher interface {
	DispatchStatus(name string, payload string) error
}

// Config carries the configuration inputs the sink reads. Values are
// fixed at construction; runtime state transitions go through SetUp,
// Enable, and Disable.
type Config struct {
	// DisableLogging globally disables relaying. Capture still
	// happens while the sink is active, but Relay is a no-op.
	DisableLogging bool

	// SynchronousRelay makes per-message relays run inline on the
	// emitting goroutine instead of on a background goroutine.
	SynchronousRelay bool

	// ToolMode selects per-message relay (interactive) or
	// externally scheduled relay (daemon).
	ToolMode ToolMode

	// DrainWaitBound bounds how long DrainPending waits on the
	// oldest outstanding relay. Zero means wait without bound. Set a
	// bound when the caller's scheduler could reuse the waiting
	// goroutine's thread for the background relay itself.
	DrainWaitBound time.Duration
}

// BufferedSink buffers captured status lines and relays them to the
// backends registered as forwarding targets.
//
// The sink has three states. Unregistered: not hooked into the
// facility, lines are not captured. Buffering (active, not enabled):
// lines are captured but never relayed automatically. Forwarding
// (active and enabled): lines are captured and may trigger a relay.
// Capture happens whenever the sink is active, regardless of enabled.
//
// Each concern has its own lock — buffer, pending-relay queue,
// primary designation, activation transitions — and no lock is held
// while dispatching to a backend, so a backend's own logging cannot
// deadlock the sink.
type BufferedSink struct {
	facility   *Facility
	dispatcher Dispatcher
	clock      clock.Clock
	cfg        Config

	// enableMu guards active and the register/unregister transitions.
	enableMu sync.Mutex
	active   bool

	// enabled is read on every Send; lock-free to keep capture cheap.
	enabled atomic.Bool

	bufferMu sync.Mutex
	buffer   []statuslog.Entry

	pendingMu sync.Mutex
	pending   []chan struct{}

	primaryMu sync.Mutex
	primary   string

	targetsMu sync.Mutex
	targets   []string
}

// NewBufferedSink creates a sink wired to the given facility and
// dispatcher. The sink starts Unregistered; call SetUp to begin
// capturing or Enable to begin forwarding.
func NewBufferedSink(facility *Facility, dispatcher Dispatcher, clk clock.Clock, cfg Config) *BufferedSink {
	return &BufferedSink{
		facility:   facility,
		dispatcher: dispatcher,
		clock:      clk,
		cfg:        cfg,
	}
}

// SetUp hooks the sink into the facility so lines are captured, without
// turning forwarding on. Idempotent. Used to start buffering before any
// backend exists.
func (s *BufferedSink) SetUp() {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	if !s.active {
		s.active = true
		s.facility.AddSink(s)
	}
}

// Enable turns forwarding on, activating the sink first if needed.
// Idempotent. Once enabled, each newly captured line may trigger a
// relay (see Send).
func (s *BufferedSink) Enable() {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	if !s.enabled.Load() {
		s.enabled.Store(true)
		if !s.active {
			s.active = true
			s.facility.AddSink(s)
		}
	}
}

// Disable turns forwarding off and unhooks the sink from the facility.
// Idempotent. After Disable no further lines are captured until SetUp
// or Enable runs again; lines already buffered stay buffered.
func (s *BufferedSink) Disable() {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	s.enabled.Store(false)
	if s.active {
		s.active = false
		s.facility.RemoveSink(s)
	}
}

// Enabled reports whether forwarding is on.
func (s *BufferedSink) Enabled() bool {
	return s.enabled.Load()
}

// Active reports whether the sink is hooked into the facility.
func (s *BufferedSink) Active() bool {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	return s.active
}

// Send is the facility callback. It appends the entry to the buffer
// and, when forwarding is enabled and the host is not a daemon
// (daemons drain on their own schedule), triggers a relay — inline
// when synchronous relaying is configured, deferred otherwise.
//
// Send tolerates arbitrary concurrent callers, including a call that
// re-enters from within a relay dispatch when a backend logs through
// the facility. Backends must not do that synchronously from their
// own dispatch handling; the recursion is unbounded and the sink
// cannot detect it.
func (s *BufferedSink) Send(entry statuslog.Entry) {
	s.bufferMu.Lock()
	s.buffer = append(s.buffer, entry)
	s.bufferMu.Unlock()

	if s.enabled.Load() && s.cfg.ToolMode != ModeDaemon {
		s.Relay(s.cfg.SynchronousRelay)
	}
}

// DumpAndClear atomically removes and returns the buffered entries in
// capture order. Entries appended after the swap belong to the next
// relay.
func (s *BufferedSink) DumpAndClear() []statuslog.Entry {
	s.bufferMu.Lock()
	defer s.bufferMu.Unlock()
	entries := s.buffer
	s.buffer = nil
	return entries
}

// QueuedStatuses reports how many entries are currently buffered.
func (s *BufferedSink) QueuedStatuses() int {
	s.bufferMu.Lock()
	defer s.bufferMu.Unlock()
	return len(s.buffer)
}

// AddForwardingTarget records a backend that accepted status logs.
// Called during initialization, after the backend's features response
// confirmed status support.
func (s *BufferedSink) AddForwardingTarget(name string) {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	s.targets = append(s.targets, name)
}

// ResetForwardingTargets clears the forwarding target list. Called at
// the start of each initialization pass.
func (s *BufferedSink) ResetForwardingTargets() {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	s.targets = nil
}

// ForwardingTargets returns a copy of the forwarding target list in
// registration order.
func (s *BufferedSink) ForwardingTargets() []string {
	s.targetsMu.Lock()
	defer s.targetsMu.Unlock()
	targets := make([]string, len(s.targets))
	copy(targets, s.targets)
	return targets
}

// IsPrimary reports whether name is the primary backend. While no
// primary has been elected every name is primary: a backend running
// outside the initializing process never learns the election result
// and must always treat itself as primary.
func (s *BufferedSink) IsPrimary(name string) bool {
	s.primaryMu.Lock()
	defer s.primaryMu.Unlock()
	return s.primary == "" || s.primary == name
}

// SetPrimaryIfUnset elects name as the primary backend if none has
// been elected. The election is permanent for the sink's lifetime.
func (s *BufferedSink) SetPrimaryIfUnset(name string) {
	s.primaryMu.Lock()
	defer s.primaryMu.Unlock()
	if s.primary == "" {
		s.primary = name
	}
}

// Primary returns the elected primary backend name, or "" if none.
func (s *BufferedSink) Primary() string {
	s.primaryMu.Lock()
	defer s.primaryMu.Unlock()
	return s.primary
}
