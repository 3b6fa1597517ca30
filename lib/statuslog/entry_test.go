// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package statuslog

import (
	"testing"
	"time"
)

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"info", SeverityInfo},
		{"WARNING", SeverityWarning},
		{"warn", SeverityWarning},
		{" error ", SeverityError},
		{"Fatal", SeverityFatal},
	}
	for _, c := range cases {
		got, err := ParseSeverity(c.in)
		if err != nil {
			t.Fatalf("ParseSeverity(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseSeverity(%q): expected %v, got %v", c.in, c.want, got)
		}
	}

	if _, err := ParseSeverity("verbose"); err == nil {
		t.Fatal("expected error for unknown severity name")
	}
}

func TestNewEntryTimestamps(t *testing.T) {
	at := time.Date(2026, 8, 30, 15, 4, 5, 0, time.FixedZone("CEST", 2*3600))
	entry := NewEntry(SeverityWarning, "agent.go", 12, "clock skew detected\n", at)

	if entry.Time != at.Unix() {
		t.Fatalf("expected unix time %d, got %d", at.Unix(), entry.Time)
	}
	if entry.CalendarTime != "Sun Aug 30 13:04:05 2026 UTC" {
		t.Fatalf("unexpected calendar time %q", entry.CalendarTime)
	}
	if entry.Message != "clock skew detected" {
		t.Fatalf("trailing newline not trimmed: %q", entry.Message)
	}
}

func TestNewEntryDefaultsUnknownFile(t *testing.T) {
	entry := NewEntry(SeverityInfo, "", 0, "m", time.Unix(0, 0))
	if entry.Filename != "<unknown>" {
		t.Fatalf("expected <unknown>, got %q", entry.Filename)
	}
}
