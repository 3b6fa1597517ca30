// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"strings"

	"github.com/wardenhq/warden/lib/logsink"
	"github.com/wardenhq/warden/lib/statuslog"
)

// EventForwarder registers backends that accept structured events
// with the event-forwarding subsystem. External collaborator; may be
// nil when the host has no event pipeline.
type EventForwarder interface {
	RegisterForwarder(name string)
}

// InitConfig carries the inputs of one backend initialization pass.
type InitConfig struct {
	// ProcessName is handed to each backend's Init.
	ProcessName string

	// Backends is the configured backend list in declaration order.
	// The first name elects the primary, registered or not.
	Backends []string

	// DisableLogging skips the pass entirely.
	DisableLogging bool
}

// SplitBackendList parses the comma-separated backend list from
// configuration, dropping empty elements.
func SplitBackendList(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// InitBackends runs one backend initialization pass. The sink is
// suspended for the duration (console fallback keeps lines visible)
// and the forwarding target list is rebuilt from scratch.
//
// For each configured backend, in declaration order: elect it primary
// if none is elected yet; skip it if unregistered; dispatch init with
// the entries captured so far attached; query features. Status
// support registers the backend as a forwarding target; event support
// registers it with the event forwarder.
//
// If at least one backend accepted status logs, forwarding is enabled
// and one immediate relay flushes everything captured during the
// pass.
func InitBackends(sink *logsink.BufferedSink, facility *logsink.Facility, dispatcher *Dispatcher, registry *Registry, forwarder EventForwarder, cfg InitConfig) {
	if cfg.DisableLogging {
		return
	}

	disabler := logsink.Suspend(sink, facility)
	defer disabler.Restore()

	sink.ResetForwardingTargets()

	// Hand the lines captured before this pass to each backend's
	// init. Serialization failure degrades to an init with no
	// buffered payload.
	payload, err := statuslog.Serialize(sink.DumpAndClear())
	if err != nil {
		payload = ""
	}

	forward := false
	for _, name := range cfg.Backends {
		sink.SetPrimaryIfUnset(name)
		if !registry.Exists(name) {
			continue
		}

		// Init result is advisory; a backend that fails init can
		// still declare capabilities.
		_, _ = dispatcher.Call(name, Request{KeyInit: cfg.ProcessName, KeyLog: payload})

		caps, err := dispatcher.Features(name)
		if err != nil {
			continue
		}
		if caps.Status {
			forward = true
			sink.AddForwardingTarget(name)
		}
		if caps.Event && forwarder != nil {
			forwarder.RegisterForwarder(name)
		}
	}

	disabler.Restore()

	if forward {
		sink.Enable()
		sink.Relay(true)
	}
}
