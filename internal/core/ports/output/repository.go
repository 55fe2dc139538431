package ports

import (
	"context"

	"artifact-registry-service/internal/core/domain"
)

type ArtifactFilter struct {
	Kind   domain.ArtifactKind
	Name   string
	Limit  int
	Offset int
}

// ArtifactRepository is the storage collaborator: the registry owns
// artifact records, the engine only reads them.
type ArtifactRepository interface {
	Create(ctx context.Context, rec *domain.ArtifactRecord) error
	GetByID(ctx context.Context, id string) (*domain.ArtifactRecord, error)
	GetByName(ctx context.Context, name string) ([]*domain.ArtifactRecord, error)
	// ResolveByName matches a dependency reference against stored
	// records: exact name first, then reference suffix, both
	// case-insensitive. A miss returns (nil, nil), not an error.
	ResolveByName(ctx context.Context, name string, kind domain.ArtifactKind) (*domain.ArtifactRecord, error)
	List(ctx context.Context, filter ArtifactFilter) ([]*domain.ArtifactRecord, int, error)
	Update(ctx context.Context, rec *domain.ArtifactRecord) error
	Delete(ctx context.Context, id string) error
}
