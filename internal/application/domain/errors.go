package domain

import "errors"

var (
	// ErrMalformedEvidence marks an item that cannot be reconciled (missing
	// or unparseable date, empty capture). Such items are skipped.
	ErrMalformedEvidence = errors.New("malformed evidence")

	// ErrMatchAmbiguous marks a fuzzy match with several candidates. It is
	// resolved by recency and only reported as a warning.
	ErrMatchAmbiguous = errors.New("ambiguous match")

	// ErrClassificationAmbiguous marks an email matching several rule groups
	// at the same strength. Precedence resolves it; it is never returned.
	ErrClassificationAmbiguous = errors.New("ambiguous classification")

	// ErrApplicationNotFound is returned by outer layers for unknown ids.
	ErrApplicationNotFound = errors.New("application not found")
)
