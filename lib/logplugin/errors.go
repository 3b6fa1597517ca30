// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package logplugin

import "errors"

// Dispatch failure taxonomy. These are definite results returned to
// the caller, distinguishable from real backend failures with
// errors.Is. Nothing in this layer is fatal to the process.
var (
	// ErrUnknownBackend: the named backend is not in the registry.
	ErrUnknownBackend = errors.New("unknown logger backend")

	// ErrUnsupportedVerb: the request carried no key that resolves
	// to a verb.
	ErrUnsupportedVerb = errors.New("unsupported call to logger backend")

	// ErrSecondaryStatusOnly: a string or snapshot request reached a
	// non-primary backend while secondary backends are restricted to
	// status logs. The backend's own logic was not invoked.
	ErrSecondaryStatusOnly = errors.New("logging disabled to secondary backend")
)
