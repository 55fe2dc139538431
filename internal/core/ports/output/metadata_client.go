package ports

import (
	"context"

	"artifact-registry-service/internal/core/domain"
)

// MetadataClient is the external catalog collaborator. The found flag
// distinguishes metadata that is legitimately absent (false, nil
// error) from an upstream failure (error). Implementations report
// failures wrapped in domain.ErrUpstreamUnavailable.
type MetadataClient interface {
	// FetchSize returns the artifact's total weight size in MB.
	FetchSize(ctx context.Context, reference string) (float64, bool, error)
	// FetchLicense returns the raw license string from the catalog card.
	FetchLicense(ctx context.Context, reference string) (string, bool, error)
	// FetchRawRefs extracts dependency hints (base models, datasets)
	// from the catalog metadata of a model reference.
	FetchRawRefs(ctx context.Context, reference string) ([]domain.RawRef, error)
}
