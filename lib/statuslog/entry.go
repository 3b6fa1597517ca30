// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package statuslog

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a status log entry. The numeric values are part
// of the transport encoding and must not be reordered.
type Severity int

const (
	// SeverityInfo is an informational notice.
	SeverityInfo Severity = iota
	// SeverityWarning indicates a recoverable problem.
	SeverityWarning
	// SeverityError indicates an operation failure.
	SeverityError
	// SeverityFatal indicates a failure the process cannot continue
	// past. The facility still captures and relays these lines; the
	// decision to exit belongs to the caller that emitted them.
	SeverityFatal
)

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// ParseSeverity converts a case-insensitive severity name ("info",
// "warning", "error", "fatal") to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", name)
	}
}

// Entry is one captured diagnostic line. Entries are immutable values:
// created at capture time, dropped after the buffer they sit in has
// been drained for a relay attempt.
type Entry struct {
	// Severity of the emitted line.
	Severity Severity

	// Filename is the base name of the source file that emitted the
	// line, or "<unknown>" when the emitter could not be resolved.
	Filename string

	// Line is the source line number, 0 when unresolved.
	Line int

	// Message is the emitted text, without a trailing newline.
	Message string

	// CalendarTime is the human-readable UTC capture time.
	CalendarTime string

	// Time is the capture time in Unix epoch seconds.
	Time int64
}

// NewEntry builds an Entry with both timestamp representations derived
// from the given capture time.
func NewEntry(severity Severity, filename string, line int, message string, at time.Time) Entry {
	if filename == "" {
		filename = "<unknown>"
	}
	utc := at.UTC()
	return Entry{
		Severity:     severity,
		Filename:     filename,
		Line:         line,
		Message:      strings.TrimRight(message, "\n"),
		CalendarTime: utc.Format(time.ANSIC) + " UTC",
		Time:         utc.Unix(),
	}
}
