package domain

import "errors"

// ============================================================================
// Artifact Registry Errors
// ============================================================================

// Not found errors
var (
	ErrArtifactNotFound = errors.New("artifact does not exist")
)

// Conflict errors
var (
	ErrArtifactConflict = errors.New("artifact exists already")
)

// Validation errors
var (
	ErrInvalidArtifactID   = errors.New("artifact ID is required")
	ErrInvalidArtifactKind = errors.New("artifact kind must be model, dataset, or code")
	ErrInvalidReference    = errors.New("artifact reference URL is required")
	ErrInvalidConsumer     = errors.New("consumer license or repository URL is required")
	ErrInvalidPattern      = errors.New("search pattern is invalid or too complex")
)

// ============================================================================
// Relationship & Cost Engine Errors
// ============================================================================

var (
	// ErrInvalidMetadata marks a record that cannot be used for the requested
	// operation: missing kind, or a root of the wrong kind (lineage and
	// license checks are defined for model roots only).
	ErrInvalidMetadata = errors.New("artifact metadata is invalid for this operation")

	// ErrUpstreamUnavailable marks an external metadata fetch that failed,
	// as distinct from metadata that is legitimately absent.
	ErrUpstreamUnavailable = errors.New("upstream metadata source unavailable")

	// ErrComputationTimeout marks a traversal that exhausted its wall-clock
	// budget. Never paired with a partial result.
	ErrComputationTimeout = errors.New("computation exceeded its time budget")
)
