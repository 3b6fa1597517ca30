// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/wardenhq/warden/lib/statuslog"
)

// Handler returns a slog.Handler that routes the process's own slog
// output into the facility. Install it as the default logger so that
// every diagnostic line the agent emits about itself is captured:
//
//	slog.SetDefault(slog.New(facility.Handler()))
//
// Attributes are rendered as "key=value" pairs appended to the
// message; groups prefix their attribute keys. Source location comes
// from the record's program counter.
func (f *Facility) Handler() slog.Handler {
	return &facilityHandler{facility: f}
}

type facilityHandler struct {
	facility *Facility
	prefix   string
	// bound holds attributes from WithAttrs, pre-rendered with the
	// prefix in effect when they were bound.
	bound string
}

func (h *facilityHandler) Enabled(_ context.Context, level slog.Level) bool {
	return severityForLevel(level) >= h.facility.MinSeverity()
}

func (h *facilityHandler) Handle(_ context.Context, record slog.Record) error {
	filename := "<unknown>"
	line := 0
	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		if frame.File != "" {
			filename = filepath.Base(frame.File)
			line = frame.Line
		}
	}

	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.bound)
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, h.prefix, attr)
		return true
	})

	at := record.Time
	if at.IsZero() {
		at = h.facility.clock.Now()
	}
	h.facility.EmitAt(severityForLevel(record.Level), filename, line, sb.String(), at)
	return nil
}

func (h *facilityHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.bound)
	for _, attr := range attrs {
		appendAttr(&sb, h.prefix, attr)
	}
	clone := *h
	clone.bound = sb.String()
	return &clone
}

func (h *facilityHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func appendAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(attr.Key)
	sb.WriteByte('=')
	sb.WriteString(attr.Value.String())
}

// severityForLevel maps slog levels onto status severities. Debug
// collapses into INFO (there is no lower wire severity); anything
// past Error maps to FATAL.
func severityForLevel(level slog.Level) statuslog.Severity {
	switch {
	case level >= slog.LevelError+4:
		return statuslog.SeverityFatal
	case level >= slog.LevelError:
		return statuslog.SeverityError
	case level >= slog.LevelWarn:
		return statuslog.SeverityWarning
	default:
		return statuslog.SeverityInfo
	}
}
