// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy for the resolution and retrieval stages. Adapters and
// strategies wrap these sentinels so callers can branch with errors.Is
// instead of matching provider-specific messages.
var (
	// ErrNoQuery marks a record without enough identifying information to
	// build a dispatchable query. It is raised before any network call.
	ErrNoQuery = errors.New("no identifying information on record")

	// ErrNotFound marks a legitimate empty lookup (404-class responses,
	// empty result sets). It is a normal outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrBlocked marks an anti-bot interstitial. The source is currently
	// unusable; the response says nothing about whether the work exists.
	ErrBlocked = errors.New("source blocked by anti-bot protection")

	// ErrBadFile marks downloaded bytes that failed format validation
	// (error page disguised as a file, truncated payload).
	ErrBadFile = errors.New("downloaded file failed validation")
)
