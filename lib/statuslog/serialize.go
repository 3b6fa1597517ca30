// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package statuslog

import (
	"encoding/json"
	"fmt"
)

// record is the wire shape of one entry. The single-letter keys keep
// relay payloads small; Filename is a pointer so an absent field can
// be told apart from an empty one and defaulted to "<unknown>".
type record struct {
	Severity     int     `json:"s"`
	Filename     *string `json:"f"`
	Line         int     `json:"i"`
	Message      string  `json:"m"`
	CalendarTime string  `json:"c"`
	Time         int64   `json:"u"`
}

// Serialize encodes a batch of entries as the transport string carried
// in a backend dispatch request. Order is preserved; an empty batch
// encodes as an empty JSON array.
func Serialize(entries []Entry) (string, error) {
	records := make([]record, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		filename := entry.Filename
		records = append(records, record{
			Severity:     int(entry.Severity),
			Filename:     &filename,
			Line:         entry.Line,
			Message:      entry.Message,
			CalendarTime: entry.CalendarTime,
			Time:         entry.Time,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding %d status entries: %w", len(entries), err)
	}
	return string(data), nil
}

// Deserialize decodes a transport string produced by Serialize back
// into entries, preserving order.
//
// Malformed input is never an error: the first init request a backend
// receives may carry no payload, or one written by a different agent
// version. A payload that does not parse yields a nil batch; a record
// with missing fields gets neutral defaults (severity INFO, line 0,
// empty message, "<unknown>" file) rather than poisoning the batch.
func Deserialize(payload string) []Entry {
	if payload == "" {
		return nil
	}

	var records []record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		filename := "<unknown>"
		if r.Filename != nil && *r.Filename != "" {
			filename = *r.Filename
		}
		entries = append(entries, Entry{
			Severity:     Severity(r.Severity),
			Filename:     filename,
			Line:         r.Line,
			Message:      r.Message,
			CalendarTime: r.CalendarTime,
			Time:         r.Time,
		})
	}
	return entries
}
