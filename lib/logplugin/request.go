// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

// Request is the wire shape of one backend dispatch: a flat mapping
// from string keys to string values. The keys present select the
// verb; there is no schema beyond "known key implies known verb", and
// unknown keys are ignored.
type Request map[string]string

// Response is the wire shape of a dispatch answer. Most verbs answer
// with an empty response; the features verb answers with capability
// keys.
type Response map[string]string

// Request keys. KeyLog carries the serialized entry batch attached to
// init and status requests.
const (
	KeyString   = "string"
	KeySnapshot = "snapshot"
	KeyInit     = "init"
	KeyStatus   = "status"
	KeyEvent    = "event"
	KeyAction   = "action"
	KeyCategory = "category"
	KeyLog      = "log"

	// ActionFeatures is the KeyAction value for the capability query.
	ActionFeatures = "features"
)

// Features-response keys. A capability is present with value "true"
// when supported and absent otherwise.
const (
	FeatureStatus = "status"
	FeatureEvent  = "event"
)

// featuresResponse encodes capabilities as a Response.
func featuresResponse(caps Capabilities) Response {
	response := Response{}
	if caps.Status {
		response[FeatureStatus] = "true"
	}
	if caps.Event {
		response[FeatureEvent] = "true"
	}
	return response
}

// parseFeatures decodes a features Response.
func parseFeatures(response Response) Capabilities {
	return Capabilities{
		Status: response[FeatureStatus] == "true",
		Event:  response[FeatureEvent] == "true",
	}
}
