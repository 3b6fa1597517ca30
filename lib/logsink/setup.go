// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import "github.com/wardenhq/warden/lib/statuslog"

// Verbosity carries the configuration inputs that derive the capture
// threshold.
type Verbosity struct {
	// Verbose lowers the threshold to INFO regardless of tool mode.
	Verbose bool

	// MinSeverity is an explicit threshold override, honored when
	// MinSeveritySet is true. It wins over Verbose and the mode
	// default.
	MinSeverity    statuslog.Severity
	MinSeveritySet bool

	// DisableLogging forces console fallback on so errors stay
	// visible even though nothing will be relayed.
	DisableLogging bool
}

// ApplyVerbosity derives and applies the facility's capture threshold.
// Verbose means INFO; otherwise interactive invocations default to
// WARNING (a shell does not want informational chatter) and daemons
// to INFO. An explicit minimum-severity override wins over both.
func ApplyVerbosity(facility *Facility, v Verbosity, mode ToolMode) {
	threshold := statuslog.SeverityInfo
	if !v.Verbose && mode == ModeInteractive {
		threshold = statuslog.SeverityWarning
	}
	if v.MinSeveritySet {
		threshold = v.MinSeverity
	}
	facility.SetMinSeverity(threshold)

	if v.DisableLogging {
		facility.SetConsoleFallback(true)
	}
}

// InitStatusLogger prepares status logging at process start, before
// any backend exists: console fallback on (there is nowhere else for
// lines to go yet), threshold derived from the verbosity inputs, and
// the sink activated so every line from here on is captured.
func InitStatusLogger(sink *BufferedSink, facility *Facility, v Verbosity, mode ToolMode) {
	facility.SetConsoleFallback(true)
	ApplyVerbosity(facility, v, mode)
	sink.SetUp()
}
