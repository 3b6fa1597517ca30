// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/wardenhq/warden/lib/statuslog"
	"github.com/wardenhq/warden/lib/testutil"
)

// startBackendServer serves backend on a fresh socket and returns the
// socket path. The server is shut down when the test completes.
func startBackendServer(t *testing.T, backend Backend) string {
	t.Helper()
	socketPath := filepath.Join(testutil.SocketDir(t), "backend.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewBackendServer(socketPath, backend, logger)
	go func() {
		defer close(done)
		if err := server.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		testutil.RequireClosed(t, done, 5*time.Second, "backend server shutdown")
	})

	// Wait for the socket to accept connections.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := NewRemoteBackend(socketPath).call(Request{KeyAction: ActionFeatures}); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("backend server did not come up")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return socketPath
}

func TestRemoteBackendRoundTrip(t *testing.T) {
	backend := &memoryBackend{caps: Capabilities{Status: true, Event: true}}
	remote := NewRemoteBackend(startBackendServer(t, backend))

	if caps := remote.Capabilities(); !caps.Status || !caps.Event {
		t.Fatalf("expected full capabilities across the wire, got %+v", caps)
	}

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	buffered := []statuslog.Entry{
		statuslog.NewEntry(statuslog.SeverityInfo, "boot.go", 2, "early", at),
	}
	if err := remote.Init("warden-daemon", buffered); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if backend.initName != "warden-daemon" {
		t.Fatalf("expected process name across the wire, got %q", backend.initName)
	}
	if len(backend.initBuffered) != 1 || backend.initBuffered[0].Message != "early" {
		t.Fatalf("unexpected buffered entries: %+v", backend.initBuffered)
	}

	batch := []statuslog.Entry{
		statuslog.NewEntry(statuslog.SeverityError, "relay.go", 8, "remote batch", at),
	}
	if err := remote.LogStatus(batch); err != nil {
		t.Fatalf("LogStatus: %v", err)
	}
	if len(backend.statuses) != 1 || backend.statuses[0][0] != batch[0] {
		t.Fatalf("status batch did not round-trip: %+v", backend.statuses)
	}

	if err := remote.LogString("a result line"); err != nil {
		t.Fatalf("LogString: %v", err)
	}
	if err := remote.LogEvent("an event"); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if len(backend.strings) != 1 || len(backend.events) != 1 {
		t.Fatalf("expected one string and one event, got %v / %v", backend.strings, backend.events)
	}
}

func TestRemoteBackendUnsupportedVerbMapsToSentinel(t *testing.T) {
	backend := &memoryBackend{}
	socketPath := startBackendServer(t, backend)

	_, err := NewRemoteBackend(socketPath).call(Request{"bogus": "verb"})
	if !errors.Is(err, ErrUnsupportedVerb) {
		t.Fatalf("expected ErrUnsupportedVerb across the wire, got %v", err)
	}
}

func TestRemoteBackendUnreachableReportsNoCapabilities(t *testing.T) {
	remote := NewRemoteBackend(filepath.Join(testutil.SocketDir(t), "absent.sock"))
	if caps := remote.Capabilities(); caps != (Capabilities{}) {
		t.Fatalf("expected zero capabilities, got %+v", caps)
	}
}

func TestRemoteBackendInRegistryDispatch(t *testing.T) {
	backend := &memoryBackend{caps: Capabilities{Status: true}}
	socketPath := startBackendServer(t, backend)

	registry := NewRegistry()
	if err := registry.Register("remote", NewRemoteBackend(socketPath)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	dispatcher := NewDispatcher(registry, nil, DispatcherConfig{})

	caps, err := dispatcher.Features("remote")
	if err != nil {
		t.Fatalf("Features: %v", err)
	}
	if !caps.Status {
		t.Fatal("expected status capability through registry dispatch")
	}

	payload, err := statuslog.Serialize([]statuslog.Entry{
		statuslog.NewEntry(statuslog.SeverityWarning, "a.go", 1, "via dispatcher",
			time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := dispatcher.DispatchStatus("remote", payload); err != nil {
		t.Fatalf("DispatchStatus: %v", err)
	}
	if len(backend.statuses) != 1 || backend.statuses[0][0].Message != "via dispatcher" {
		t.Fatalf("unexpected statuses: %+v", backend.statuses)
	}
}
