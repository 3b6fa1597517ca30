// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/wardenhq/warden/lib/codec"
	"github.com/wardenhq/warden/lib/statuslog"
)

// dialTimeout covers only the connect phase to a backend socket.
const dialTimeout = 5 * time.Second

// exchangeTimeout bounds one full request-response cycle after the
// connection is up. Generous: a remote backend may be flushing to
// slow storage.
const exchangeTimeout = 30 * time.Second

// maxWireSize caps a single CBOR wire value in either direction. A
// status batch of a few thousand entries fits comfortably.
const maxWireSize = 4 * 1024 * 1024

// Wire failure codes carried in wireResponse.Code so the client can
// map a definite protocol failure back to its sentinel error instead
// of conflating it with a real backend failure.
const (
	wireCodeUnsupportedVerb = "unsupported_verb"
)

// wireRequest is the CBOR envelope for one dispatch request.
type wireRequest struct {
	Request map[string]string `cbor:"request"`
}

// wireResponse is the CBOR envelope for one dispatch answer.
type wireResponse struct {
	OK       bool              `cbor:"ok"`
	Code     string            `cbor:"code,omitempty"`
	Error    string            `cbor:"error,omitempty"`
	Response map[string]string `cbor:"response,omitempty"`
}

// RemoteBackend speaks the dispatch protocol to a backend running in
// another process, over a Unix socket served by a [BackendServer].
// Each call opens a fresh connection, writes one CBOR request, reads
// one CBOR response, and closes.
//
// Register a RemoteBackend in the local registry under the remote
// backend's name; dispatch then treats it like any in-process
// backend.
type RemoteBackend struct {
	socketPath string
}

// NewRemoteBackend creates a client for the backend socket at
// socketPath. No connection is made until the first call.
func NewRemoteBackend(socketPath string) *RemoteBackend {
	return &RemoteBackend{socketPath: socketPath}
}

var _ Backend = (*RemoteBackend)(nil)

// Init forwards the process name and pre-captured entries.
func (r *RemoteBackend) Init(processName string, buffered []statuslog.Entry) error {
	payload, err := statuslog.Serialize(buffered)
	if err != nil {
		payload = ""
	}
	_, err = r.call(Request{KeyInit: processName, KeyLog: payload})
	return err
}

// Capabilities queries the remote features. An unreachable backend
// reports no capabilities rather than failing negotiation.
func (r *RemoteBackend) Capabilities() Capabilities {
	response, err := r.call(Request{KeyAction: ActionFeatures})
	if err != nil {
		return Capabilities{}
	}
	return parseFeatures(response)
}

// LogString forwards one free-form result line.
func (r *RemoteBackend) LogString(message string) error {
	_, err := r.call(Request{KeyString: message})
	return err
}

// LogStatus forwards a batch of status entries.
func (r *RemoteBackend) LogStatus(entries []statuslog.Entry) error {
	payload, err := statuslog.Serialize(entries)
	if err != nil {
		return fmt.Errorf("encoding status batch: %w", err)
	}
	_, err = r.call(Request{KeyStatus: "true", KeyLog: payload})
	return err
}

// LogSnapshot forwards a point-in-time result set.
func (r *RemoteBackend) LogSnapshot(snapshot string) error {
	_, err := r.call(Request{KeySnapshot: snapshot})
	return err
}

// LogEvent forwards one structured event record.
func (r *RemoteBackend) LogEvent(event string) error {
	_, err := r.call(Request{KeyEvent: event})
	return err
}

// call performs one request-response exchange.
func (r *RemoteBackend) call(request Request) (Response, error) {
	conn, err := net.DialTimeout("unix", r.socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing backend socket %s: %w", r.socketPath, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(exchangeTimeout))

	if err := codec.NewEncoder(conn).Encode(wireRequest{Request: request}); err != nil {
		return nil, fmt.Errorf("writing request to %s: %w", r.socketPath, err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		// Half-close so the server sees EOF after the single request.
		unixConn.CloseWrite()
	}

	var response wireResponse
	limited := io.LimitReader(conn, maxWireSize)
	if err := codec.NewDecoder(limited).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", r.socketPath, err)
	}

	if !response.OK {
		switch response.Code {
		case wireCodeUnsupportedVerb:
			return nil, ErrUnsupportedVerb
		default:
			return nil, fmt.Errorf("backend at %s failed: %s", r.socketPath, response.Error)
		}
	}
	return Response(response.Response), nil
}
