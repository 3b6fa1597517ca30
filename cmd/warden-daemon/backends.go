// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/wardenhq/warden/lib/logplugin"
	"github.com/wardenhq/warden/lib/statuslog"
)

// Log file names used by the filesystem backend, one per stream.
const (
	statusLogFile    = "warden.status.log"
	resultsLogFile   = "warden.results.log"
	snapshotsLogFile = "warden.snapshots.log"
)

// filesystemBackend appends log lines to files in a directory. Each
// stream (status, results, snapshots) gets its own file. A file that
// grows past maxSize is rotated: the current file is gzip-compressed
// to <name>.<n>.gz and a fresh file starts. Events are appended to
// the results file as lines, so the backend declares both status and
// event support.
type filesystemBackend struct {
	dir     string
	maxSize int64

	mu sync.Mutex
}

func newFilesystemBackend(dir string, maxSize int64) *filesystemBackend {
	return &filesystemBackend{dir: dir, maxSize: maxSize}
}

var _ logplugin.Backend = (*filesystemBackend)(nil)

func (b *filesystemBackend) Init(processName string, buffered []statuslog.Entry) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return b.LogStatus(buffered)
}

func (b *filesystemBackend) Capabilities() logplugin.Capabilities {
	return logplugin.Capabilities{Status: true, Event: true}
}

func (b *filesystemBackend) LogString(message string) error {
	return b.appendLine(resultsLogFile, message)
}

func (b *filesystemBackend) LogStatus(entries []statuslog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := b.openLocked(statusLogFile)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, entry := range entries {
		_, err := fmt.Fprintf(file, "%s [%s] %s:%d %s\n",
			entry.CalendarTime, entry.Severity, entry.Filename, entry.Line, entry.Message)
		if err != nil {
			return fmt.Errorf("appending status line: %w", err)
		}
	}
	return nil
}

func (b *filesystemBackend) LogSnapshot(snapshot string) error {
	return b.appendLine(snapshotsLogFile, snapshot)
}

func (b *filesystemBackend) LogEvent(event string) error {
	return b.appendLine(resultsLogFile, event)
}

func (b *filesystemBackend) appendLine(name, line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := b.openLocked(name)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, line); err != nil {
		return fmt.Errorf("appending to %s: %w", name, err)
	}
	return nil
}

// openLocked opens the named log file for appending, rotating it
// first if it has grown past maxSize. Caller holds b.mu.
func (b *filesystemBackend) openLocked(name string) (*os.File, error) {
	path := filepath.Join(b.dir, name)

	if info, err := os.Stat(path); err == nil && b.maxSize > 0 && info.Size() >= b.maxSize {
		if err := b.rotateLocked(path); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return file, nil
}

// rotateLocked compresses path to the first free <path>.<n>.gz slot
// and removes the original. Caller holds b.mu.
func (b *filesystemBackend) rotateLocked(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s for rotation: %w", path, err)
	}
	defer source.Close()

	target := ""
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d.gz", path, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			target = candidate
			break
		}
	}

	archive, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", target, err)
	}

	writer := gzip.NewWriter(archive)
	if _, err := io.Copy(writer, source); err != nil {
		archive.Close()
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		archive.Close()
		return fmt.Errorf("finishing archive %s: %w", target, err)
	}
	if err := archive.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", target, err)
	}

	return os.Remove(path)
}

// consoleBackend writes formatted lines to a single writer (stdout in
// production). It accepts status batches but not events.
type consoleBackend struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleBackend(w io.Writer) *consoleBackend {
	return &consoleBackend{w: w}
}

var _ logplugin.Backend = (*consoleBackend)(nil)

func (b *consoleBackend) Init(processName string, buffered []statuslog.Entry) error {
	return b.LogStatus(buffered)
}

func (b *consoleBackend) Capabilities() logplugin.Capabilities {
	return logplugin.Capabilities{Status: true}
}

func (b *consoleBackend) LogString(message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := fmt.Fprintln(b.w, message)
	return err
}

func (b *consoleBackend) LogStatus(entries []statuslog.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range entries {
		_, err := fmt.Fprintf(b.w, "%s [%s] %s:%d %s\n",
			entry.CalendarTime, entry.Severity, entry.Filename, entry.Line, entry.Message)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *consoleBackend) LogSnapshot(snapshot string) error {
	return b.LogString(snapshot)
}

func (b *consoleBackend) LogEvent(event string) error {
	return logplugin.ErrUnsupportedVerb
}
