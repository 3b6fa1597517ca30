// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import "sync"

// Disabler temporarily suspends the sink while backends are being
// reconfigured, so no half-initialized backend observes a relay and
// no forwarding loop forms while plugins are swapped. Lines emitted
// during the suspension stay visible through the forced console
// fallback.
//
// Obtain one with Suspend and release it with Restore, usually via
// defer. Restore is idempotent and safe on every exit path.
type Disabler struct {
	sink     *BufferedSink
	facility *Facility

	wasEnabled      bool
	consoleFallback bool

	once sync.Once
}

// Suspend records the sink's forwarding state and the facility's
// console-fallback setting, disables the sink, and forces console
// fallback on.
func Suspend(sink *BufferedSink, facility *Facility) *Disabler {
	d := &Disabler{
		sink:       sink,
		facility:   facility,
		wasEnabled: sink.Enabled(),
	}
	sink.Disable()
	d.consoleFallback = facility.SetConsoleFallback(true)
	return d
}

// Restore re-enables forwarding if it was enabled at Suspend time and
// restores the recorded console-fallback setting.
func (d *Disabler) Restore() {
	d.once.Do(func() {
		if d.wasEnabled {
			d.sink.Enable()
		}
		d.facility.SetConsoleFallback(d.consoleFallback)
	})
}
