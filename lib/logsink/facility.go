// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wardenhq/warden/lib/clock"
	"github.com/wardenhq/warden/lib/statuslog"
)

// Sink receives one callback per emitted diagnostic line. Callbacks
// arrive synchronously on the emitting goroutine and must not block
// for long or emit through the same facility.
type Sink interface {
	Send(entry statuslog.Entry)
}

// Facility is the process log facility: the fan-out point between
// code that emits diagnostic lines and the sinks that capture them.
//
// Sinks register and unregister at runtime (the buffered sink does so
// on enable/disable transitions). Independently of sinks, the
// facility can mirror every line to a fallback console writer; the
// disabler forces this on while forwarding is suspended so lines stay
// visible when no backend will receive them.
type Facility struct {
	clock   clock.Clock
	console io.Writer

	mu    sync.Mutex
	sinks []Sink

	consoleFallback atomic.Bool
	minSeverity     atomic.Int32
}

// NewFacility creates a facility whose console fallback writes to
// console (typically os.Stderr). The minimum severity starts at INFO;
// adjust it with SetMinSeverity or ApplyVerbosity.
func NewFacility(console io.Writer, clk clock.Clock) *Facility {
	return &Facility{
		clock:   clk,
		console: console,
	}
}

// AddSink registers a sink. Adding a sink that is already registered
// is a no-op.
func (f *Facility) AddSink(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sinks {
		if s == sink {
			return
		}
	}
	f.sinks = append(f.sinks, sink)
}

// RemoveSink unregisters a sink. After RemoveSink returns, no new
// Emit call will reach the sink; an Emit already in flight on another
// goroutine may still deliver one final entry.
func (f *Facility) RemoveSink(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sinks {
		if s == sink {
			f.sinks = append(f.sinks[:i], f.sinks[i+1:]...)
			return
		}
	}
}

// SetConsoleFallback turns the fallback console mirror on or off and
// returns the previous setting.
func (f *Facility) SetConsoleFallback(on bool) bool {
	return f.consoleFallback.Swap(on)
}

// ConsoleFallback reports whether the fallback console mirror is on.
func (f *Facility) ConsoleFallback() bool {
	return f.consoleFallback.Load()
}

// SetMinSeverity sets the minimum severity an emitted line must have
// to be captured at all. Lines below the threshold are dropped before
// they reach any sink or the console.
func (f *Facility) SetMinSeverity(severity statuslog.Severity) {
	f.minSeverity.Store(int32(severity))
}

// MinSeverity returns the current capture threshold.
func (f *Facility) MinSeverity() statuslog.Severity {
	return statuslog.Severity(f.minSeverity.Load())
}

// Emit delivers one diagnostic line to the facility. The entry is
// built once, stamped with the facility clock, and handed to every
// registered sink in registration order on the calling goroutine.
// No facility lock is held while sinks run.
func (f *Facility) Emit(severity statuslog.Severity, filename string, line int, message string) {
	f.EmitAt(severity, filename, line, message, f.clock.Now())
}

// EmitAt is Emit with an explicit capture time, used by the slog
// handler to preserve the record's own timestamp.
func (f *Facility) EmitAt(severity statuslog.Severity, filename string, line int, message string, at time.Time) {
	if severity < f.MinSeverity() {
		return
	}

	entry := statuslog.NewEntry(severity, filename, line, message, at)

	if f.consoleFallback.Load() && f.console != nil {
		fmt.Fprintf(f.console, "%s [%s] %s:%d %s\n",
			entry.CalendarTime, entry.Severity, entry.Filename, entry.Line, entry.Message)
	}

	f.mu.Lock()
	sinks := make([]Sink, len(f.sinks))
	copy(sinks, f.sinks)
	f.mu.Unlock()

	for _, sink := range sinks {
		sink.Send(entry)
	}
}
