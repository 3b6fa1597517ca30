// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"strings"

	"github.com/wardenhq/warden/lib/statuslog"
)

// Relay drains the buffer and dispatches one serialized status batch
// to every forwarding target, in target registration order, with the
// entries in capture order.
//
// When immediate is true the relay runs inline and Relay returns only
// after every dispatch has completed. Otherwise the relay runs on a
// background goroutine and its completion handle is queued for
// DrainPending.
//
// Relaying is a no-op when logging is globally disabled or the buffer
// is empty. The empty check races benignly with concurrent relays: a
// second caller may start a redundant relay whose drain comes up
// empty, which it tolerates. A batch a backend fails to accept is
// simply unacknowledged; retry policy belongs to the backend or an
// external scheduler.
func (s *BufferedSink) Relay(immediate bool) {
	if s.cfg.DisableLogging {
		return
	}

	s.bufferMu.Lock()
	empty := len(s.buffer) == 0
	s.bufferMu.Unlock()
	if empty {
		return
	}

	if immediate {
		s.relayTask()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.relayTask()
	}()

	s.pendingMu.Lock()
	s.pending = append(s.pending, done)
	s.pendingMu.Unlock()
}

// relayTask is one drain-serialize-dispatch pass. No sink lock is
// held while dispatching.
func (s *BufferedSink) relayTask() {
	entries := s.DumpAndClear()
	if len(entries) == 0 {
		// Lost the race with a concurrent relay; that relay carried
		// the entries.
		return
	}

	payload, err := statuslog.Serialize(entries)
	if err != nil {
		// Serialization of captured entries cannot realistically
		// fail; treat it like an unacknowledged delivery.
		return
	}
	payload = strings.TrimRight(payload, "\n")

	for _, name := range s.ForwardingTargets() {
		// Address each target explicitly. Delivery failures are not
		// retried here.
		_ = s.dispatcher.DispatchStatus(name, payload)
	}
}

// DrainPending waits for the oldest outstanding deferred relay to
// complete. No-op when none are outstanding. Only one handle is
// waited per call; callers needing full drainage call repeatedly
// until PendingRelays reports zero.
//
// When Config.DrainWaitBound is set the wait is bounded by it, for
// callers whose scheduler could otherwise deadlock waiting on work
// scheduled onto the waiting thread. A timed-out handle is discarded;
// its relay still completes in the background.
func (s *BufferedSink) DrainPending() {
	s.pendingMu.Lock()
	if len(s.pending) == 0 {
		s.pendingMu.Unlock()
		return
	}
	oldest := s.pending[0]
	s.pending = s.pending[1:]
	s.pendingMu.Unlock()

	if bound := s.cfg.DrainWaitBound; bound > 0 {
		select {
		case <-oldest:
		case <-s.clock.After(bound):
		}
		return
	}
	<-oldest
}

// PendingRelays reports how many deferred relay handles are queued.
func (s *BufferedSink) PendingRelays() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}
