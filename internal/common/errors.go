// Package common defines shared sentinel errors used across the adapter,
// drivers and HTTP layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Backend availability errors. Drivers wrap these around transport and
	// status failures; the adapter treats any of them as a cue to fall back
	// rather than surface the failure.
	ErrNotConfigured = errors.New("backend not configured")
	ErrUnavailable   = errors.New("backend unavailable")

	// Photo-specific errors. ErrPhotoTooLarge is the one expected failure
	// the adapter surfaces to callers: an oversized inline blob would break
	// the document store's per-document size ceiling.
	ErrPhotoTooLarge = errors.New("photo exceeds size budget")
)
