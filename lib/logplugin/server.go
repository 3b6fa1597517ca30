// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/wardenhq/warden/lib/codec"
)

// Connection deadlines for one request-response cycle. A well-behaved
// client writes its request immediately after connecting.
const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 10 * time.Second
)

// BackendServer exposes a local Backend to other processes over a
// Unix socket, one CBOR request-response exchange per connection.
// This is how a backend runs outside the agent: the agent registers a
// [RemoteBackend] pointing at this socket.
//
// The server applies no primary gating — a backend outside the
// initializing process never learns the election and is always
// treated as primary.
type BackendServer struct {
	socketPath string
	backend    Backend
	logger     *slog.Logger

	// activeConnections tracks in-flight exchanges so Serve can wait
	// for them during graceful shutdown.
	activeConnections sync.WaitGroup
}

// NewBackendServer creates a server that will listen on socketPath
// and answer dispatch requests with backend.
func NewBackendServer(socketPath string, backend Backend, logger *slog.Logger) *BackendServer {
	return &BackendServer{
		socketPath: socketPath,
		backend:    backend,
		logger:     logger,
	}
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight exchanges to finish. Any stale socket file at the path is
// removed before listening; the socket file is removed on return.
func (s *BackendServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("backend server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection processes one request-response exchange.
func (s *BackendServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(serverReadTimeout))

	var request wireRequest
	limited := io.LimitReader(conn, maxWireSize)
	if err := codec.NewDecoder(limited).Decode(&request); err != nil {
		s.logger.Warn("malformed backend request", "error", err)
		return
	}

	response := s.dispatch(Request(request.Request))

	conn.SetWriteDeadline(time.Now().Add(serverWriteTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Warn("writing backend response failed", "error", err)
	}
}

// dispatch routes the request to the backend and wraps the result in
// the wire envelope. Dispatch failures become definite wire results;
// they never tear down the server.
func (s *BackendServer) dispatch(request Request) wireResponse {
	response, err := routeRequest(s.backend, request)
	if err != nil {
		wire := wireResponse{Error: err.Error()}
		if errors.Is(err, ErrUnsupportedVerb) {
			wire.Code = wireCodeUnsupportedVerb
		}
		return wire
	}
	return wireResponse{OK: true, Response: response}
}
