// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package statuslog defines the intermediate representation of the
// agent's own diagnostic log lines and its transport encoding.
//
// An [Entry] is created once per emitted line at capture time and is
// never mutated afterwards. Entries travel from the capture facility
// through the buffered sink to logging backends; [Serialize] and
// [Deserialize] convert a batch of entries to and from the transport
// string carried in backend dispatch requests.
//
// The encoding is a JSON array of records with single-letter keys
// (severity, file, line, message, calendar time, unix time). It is
// deliberately tolerant on the decode side: a malformed payload yields
// an empty batch and missing fields default to neutral values, because
// a backend's first init request may carry no payload at all.
package statuslog
