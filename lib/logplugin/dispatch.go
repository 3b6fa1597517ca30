// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"strings"

	"github.com/wardenhq/warden/lib/statuslog"
)

// PrimaryChecker reports whether a named backend is the primary.
// Implemented by the buffered sink; a checker that always answers
// true reproduces the permissive default used outside the
// initializing process.
type PrimaryChecker interface {
	IsPrimary(name string) bool
}

// DispatcherConfig carries the configuration inputs the dispatcher
// reads.
type DispatcherConfig struct {
	// SecondaryStatusOnly restricts non-primary backends to status
	// traffic: string and snapshot requests to them short-circuit
	// with ErrSecondaryStatusOnly.
	SecondaryStatusOnly bool

	// DisableLogging makes the convenience helpers (LogString,
	// LogSnapshot, LogEvent) silent no-ops.
	DisableLogging bool
}

// Dispatcher routes requests to named backends, applying the
// secondary gating policy before backend logic runs.
type Dispatcher struct {
	registry *Registry
	primary  PrimaryChecker
	cfg      DispatcherConfig
}

// NewDispatcher creates a dispatcher over the registry. primary may
// be nil, in which case every backend is treated as primary.
func NewDispatcher(registry *Registry, primary PrimaryChecker, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{registry: registry, primary: primary, cfg: cfg}
}

// Call dispatches one request to the named backend. The verb is
// resolved from the request's keys in fixed priority order: string,
// snapshot, init, status, event, action=features. A request that
// resolves to no verb fails with ErrUnsupportedVerb. Errors are
// returned, never panicked, across the dispatch boundary.
func (d *Dispatcher) Call(name string, request Request) (Response, error) {
	backend, ok := d.registry.Lookup(name)
	if !ok {
		return nil, ErrUnknownBackend
	}

	if d.cfg.SecondaryStatusOnly && !d.isPrimary(name) {
		_, hasString := request[KeyString]
		_, hasSnapshot := request[KeySnapshot]
		if hasString || hasSnapshot {
			return nil, ErrSecondaryStatusOnly
		}
	}

	return routeRequest(backend, request)
}

func (d *Dispatcher) isPrimary(name string) bool {
	if d.primary == nil {
		return true
	}
	return d.primary.IsPrimary(name)
}

// routeRequest resolves the verb and invokes the backend. Shared
// with BackendServer, which serves a backend outside the initializing
// process and therefore never gates.
func routeRequest(backend Backend, request Request) (Response, error) {
	if message, ok := request[KeyString]; ok {
		return Response{}, backend.LogString(message)
	}
	if snapshot, ok := request[KeySnapshot]; ok {
		return Response{}, backend.LogSnapshot(snapshot)
	}
	if processName, ok := request[KeyInit]; ok {
		buffered := statuslog.Deserialize(request[KeyLog])
		return Response{}, backend.Init(processName, buffered)
	}
	if _, ok := request[KeyStatus]; ok {
		entries := statuslog.Deserialize(request[KeyLog])
		return Response{}, backend.LogStatus(entries)
	}
	if event, ok := request[KeyEvent]; ok {
		return Response{}, backend.LogEvent(event)
	}
	if request[KeyAction] == ActionFeatures {
		return featuresResponse(backend.Capabilities()), nil
	}
	return nil, ErrUnsupportedVerb
}

// DispatchStatus sends one serialized status batch to the named
// backend. This is the relay engine's per-target dispatch; it
// implements the sink's Dispatcher interface.
func (d *Dispatcher) DispatchStatus(name string, payload string) error {
	_, err := d.Call(name, Request{KeyStatus: "true", KeyLog: payload})
	return err
}

// Features queries the named backend's capabilities as a typed value.
func (d *Dispatcher) Features(name string) (Capabilities, error) {
	response, err := d.Call(name, Request{KeyAction: ActionFeatures})
	if err != nil {
		return Capabilities{}, err
	}
	return parseFeatures(response), nil
}

// LogString sends one free-form result line to the named backend.
// No-op when logging is globally disabled. A trailing newline is
// trimmed before dispatch.
func (d *Dispatcher) LogString(name, message, category string) error {
	if d.cfg.DisableLogging {
		return nil
	}
	_, err := d.Call(name, Request{
		KeyString:   strings.TrimRight(message, "\n"),
		KeyCategory: category,
	})
	return err
}

// LogSnapshot sends a point-in-time result set to the named backend.
// No-op when logging is globally disabled.
func (d *Dispatcher) LogSnapshot(name, snapshot string) error {
	if d.cfg.DisableLogging {
		return nil
	}
	_, err := d.Call(name, Request{KeySnapshot: strings.TrimRight(snapshot, "\n")})
	return err
}

// LogEvent sends one structured event record to the named backend.
// No-op when logging is globally disabled.
func (d *Dispatcher) LogEvent(name, event string) error {
	if d.cfg.DisableLogging {
		return nil
	}
	_, err := d.Call(name, Request{KeyEvent: event})
	return err
}
