// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wardenhq/warden/lib/statuslog"
)

// memoryBackend records every invocation for assertions.
type memoryBackend struct {
	mu sync.Mutex

	caps Capabilities

	initName     string
	initBuffered []statuslog.Entry
	strings      []string
	snapshots    []string
	events       []string
	statuses     [][]statuslog.Entry
}

var _ Backend = (*memoryBackend)(nil)

func (b *memoryBackend) Init(processName string, buffered []statuslog.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initName = processName
	b.initBuffered = buffered
	return nil
}

func (b *memoryBackend) Capabilities() Capabilities { return b.caps }

func (b *memoryBackend) LogString(message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strings = append(b.strings, message)
	return nil
}

func (b *memoryBackend) LogStatus(entries []statuslog.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, entries)
	return nil
}

func (b *memoryBackend) LogSnapshot(snapshot string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, snapshot)
	return nil
}

func (b *memoryBackend) LogEvent(event string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

// staticPrimary treats exactly one name as primary.
type staticPrimary struct{ name string }

func (p staticPrimary) IsPrimary(name string) bool { return name == p.name }

func newTestDispatcher(cfg DispatcherConfig, primary PrimaryChecker) (*Dispatcher, *Registry, *memoryBackend) {
	registry := NewRegistry()
	backend := &memoryBackend{caps: Capabilities{Status: true}}
	if err := registry.Register("filesystem", backend); err != nil {
		panic(err)
	}
	return NewDispatcher(registry, primary, cfg), registry, backend
}

func TestCallUnknownBackend(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(DispatcherConfig{}, nil)

	_, err := dispatcher.Call("nope", Request{KeyString: "x"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestCallUnsupportedVerb(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(DispatcherConfig{}, nil)

	_, err := dispatcher.Call("filesystem", Request{"unrelated": "key"})
	if !errors.Is(err, ErrUnsupportedVerb) {
		t.Fatalf("expected ErrUnsupportedVerb, got %v", err)
	}
	_, err = dispatcher.Call("filesystem", Request{KeyAction: "reload"})
	if !errors.Is(err, ErrUnsupportedVerb) {
		t.Fatalf("expected ErrUnsupportedVerb for unknown action, got %v", err)
	}
}

func TestCallVerbPriorityStringWins(t *testing.T) {
	dispatcher, _, backend := newTestDispatcher(DispatcherConfig{}, nil)

	// A request carrying several verb keys resolves to the highest
	// priority one; the rest are ignored.
	_, err := dispatcher.Call("filesystem", Request{
		KeyEvent:    "ignored",
		KeySnapshot: "ignored",
		KeyString:   "wins",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(backend.strings) != 1 || backend.strings[0] != "wins" {
		t.Fatalf("expected string verb to win, got strings=%v snapshots=%v events=%v",
			backend.strings, backend.snapshots, backend.events)
	}
}

func TestCallInitCarriesBufferedEntries(t *testing.T) {
	dispatcher, _, backend := newTestDispatcher(DispatcherConfig{}, nil)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	buffered := []statuslog.Entry{
		statuslog.NewEntry(statuslog.SeverityWarning, "boot.go", 9, "early line", at),
	}
	payload, err := statuslog.Serialize(buffered)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if _, err := dispatcher.Call("filesystem", Request{KeyInit: "warden-daemon", KeyLog: payload}); err != nil {
		t.Fatalf("init dispatch: %v", err)
	}
	if backend.initName != "warden-daemon" {
		t.Fatalf("expected process name warden-daemon, got %q", backend.initName)
	}
	if len(backend.initBuffered) != 1 || backend.initBuffered[0].Message != "early line" {
		t.Fatalf("unexpected buffered entries: %+v", backend.initBuffered)
	}
}

func TestFeaturesReturnsTypedCapabilities(t *testing.T) {
	registry := NewRegistry()
	statusOnly := &memoryBackend{caps: Capabilities{Status: true}}
	eventOnly := &memoryBackend{caps: Capabilities{Event: true}}
	neither := &memoryBackend{}
	registry.Register("status-only", statusOnly)
	registry.Register("event-only", eventOnly)
	registry.Register("neither", neither)
	dispatcher := NewDispatcher(registry, nil, DispatcherConfig{})

	cases := []struct {
		name string
		want Capabilities
	}{
		{"status-only", Capabilities{Status: true}},
		{"event-only", Capabilities{Event: true}},
		{"neither", Capabilities{}},
	}
	for _, c := range cases {
		got, err := dispatcher.Features(c.name)
		if err != nil {
			t.Fatalf("Features(%s): %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("Features(%s): expected %+v, got %+v", c.name, c.want, got)
		}
	}
}

func TestSecondaryGatingBlocksStringAndSnapshot(t *testing.T) {
	registry := NewRegistry()
	primary := &memoryBackend{caps: Capabilities{Status: true}}
	secondary := &memoryBackend{caps: Capabilities{Status: true}}
	registry.Register("primary", primary)
	registry.Register("secondary", secondary)
	dispatcher := NewDispatcher(registry, staticPrimary{name: "primary"},
		DispatcherConfig{SecondaryStatusOnly: true})

	// String and snapshot to the secondary short-circuit before
	// backend logic.
	_, err := dispatcher.Call("secondary", Request{KeyString: "blocked"})
	if !errors.Is(err, ErrSecondaryStatusOnly) {
		t.Fatalf("expected ErrSecondaryStatusOnly, got %v", err)
	}
	_, err = dispatcher.Call("secondary", Request{KeySnapshot: "blocked"})
	if !errors.Is(err, ErrSecondaryStatusOnly) {
		t.Fatalf("expected ErrSecondaryStatusOnly, got %v", err)
	}
	if len(secondary.strings) != 0 || len(secondary.snapshots) != 0 {
		t.Fatal("gated requests must not reach backend logic")
	}

	// The same requests succeed against the primary.
	if _, err := dispatcher.Call("primary", Request{KeyString: "allowed"}); err != nil {
		t.Fatalf("string to primary: %v", err)
	}

	// Status, init, and event are never gated.
	if _, err := dispatcher.Call("secondary", Request{KeyStatus: "true", KeyLog: "[]"}); err != nil {
		t.Fatalf("status to secondary: %v", err)
	}
	if _, err := dispatcher.Call("secondary", Request{KeyInit: "p", KeyLog: ""}); err != nil {
		t.Fatalf("init to secondary: %v", err)
	}
	if _, err := dispatcher.Call("secondary", Request{KeyEvent: "e"}); err != nil {
		t.Fatalf("event to secondary: %v", err)
	}
}

func TestDispatchStatusDeliversBatch(t *testing.T) {
	dispatcher, _, backend := newTestDispatcher(DispatcherConfig{}, nil)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	payload, err := statuslog.Serialize([]statuslog.Entry{
		statuslog.NewEntry(statuslog.SeverityError, "relay.go", 3, "batched", at),
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if err := dispatcher.DispatchStatus("filesystem", payload); err != nil {
		t.Fatalf("DispatchStatus: %v", err)
	}
	if len(backend.statuses) != 1 || len(backend.statuses[0]) != 1 {
		t.Fatalf("unexpected status batches: %+v", backend.statuses)
	}
	if backend.statuses[0][0].Message != "batched" {
		t.Fatalf("unexpected entry: %+v", backend.statuses[0][0])
	}
}

func TestConvenienceHelpersHonorDisableLogging(t *testing.T) {
	dispatcher, _, backend := newTestDispatcher(DispatcherConfig{DisableLogging: true}, nil)

	if err := dispatcher.LogString("filesystem", "line\n", "event"); err != nil {
		t.Fatalf("LogString: %v", err)
	}
	if err := dispatcher.LogSnapshot("filesystem", "snap"); err != nil {
		t.Fatalf("LogSnapshot: %v", err)
	}
	if err := dispatcher.LogEvent("filesystem", "evt"); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if len(backend.strings)+len(backend.snapshots)+len(backend.events) != 0 {
		t.Fatal("disabled logging must be a silent no-op")
	}
}

func TestLogStringTrimsTrailingNewline(t *testing.T) {
	dispatcher, _, backend := newTestDispatcher(DispatcherConfig{}, nil)

	if err := dispatcher.LogString("filesystem", "line\n", "event"); err != nil {
		t.Fatalf("LogString: %v", err)
	}
	if len(backend.strings) != 1 || backend.strings[0] != "line" {
		t.Fatalf("expected trimmed line, got %v", backend.strings)
	}
}
