package services

import (
	"context"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// ArtifactService is the registry surface: it owns record lifecycle,
// while the engine services only read what it stores.
type ArtifactService struct {
	repo    ports.ArtifactRepository
	catalog ports.MetadataClient
}

func NewArtifactService(repo ports.ArtifactRepository, catalog ports.MetadataClient) *ArtifactService {
	return &ArtifactService{repo: repo, catalog: catalog}
}

// Register stores a new artifact for an upstream reference. The id is
// derived from (kind, canonical reference), so registering the same
// thing twice is a conflict rather than a duplicate. Catalog metadata
// (name, license, size, dependency hints) is best-effort: an
// unreachable catalog still yields a bare record.
func (s *ArtifactService) Register(ctx context.Context, kindRaw, reference, name string) (*domain.ArtifactRecord, error) {
	kind, err := domain.ParseArtifactKind(kindRaw)
	if err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrInvalidReference
	}

	now := time.Now()
	rec := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(kind, reference),
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		Reference: domain.CanonicalizeReference(reference),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rec.Name == "" {
		rec.Name = domain.RefName(reference)
	}

	s.enrich(ctx, rec)

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// enrich fills license, size, and dependency hints from the catalog.
// Only hub-backed kinds are asked; every failure degrades to a bare
// field with a log line.
func (s *ArtifactService) enrich(ctx context.Context, rec *domain.ArtifactRecord) {
	if rec.Kind == domain.KindCode {
		return
	}

	if lic, found, err := s.catalog.FetchLicense(ctx, rec.Reference); err != nil {
		log.WithError(err).WithField("artifact_id", rec.ID).Warn("license enrichment failed")
	} else if found {
		rec.License = lic
	}

	if mb, found, err := s.catalog.FetchSize(ctx, rec.Reference); err != nil {
		log.WithError(err).WithField("artifact_id", rec.ID).Warn("size enrichment failed")
	} else if found {
		rec.SizeMB = mb
		rec.SizeKnown = true
	}

	if rec.Kind != domain.KindModel {
		return
	}
	if refs, err := s.catalog.FetchRawRefs(ctx, rec.Reference); err != nil {
		log.WithError(err).WithField("artifact_id", rec.ID).Warn("dependency hint enrichment failed")
	} else {
		rec.RawRefs = refs
	}
}

func (s *ArtifactService) Get(ctx context.Context, id string) (*domain.ArtifactRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidArtifactID
	}
	return s.repo.GetByID(ctx, id)
}

// GetByName returns every record sharing a name. An empty result is
// reported as not found, matching the registry's byName lookup.
func (s *ArtifactService) GetByName(ctx context.Context, name string) ([]*domain.ArtifactRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArtifactID
	}
	recs, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrArtifactNotFound
	}
	return recs, nil
}

// Search scans the registry for records whose name or reference
// matches a pattern. Matching is case-insensitive and the result is
// ordered by name, so the same pattern always returns the same list.
// No matches is reported as not found, like the byName lookup.
func (s *ArtifactService) Search(ctx context.Context, pattern string) ([]*domain.ArtifactRecord, error) {
	re, err := domain.CompileSearchPattern(pattern)
	if err != nil {
		return nil, err
	}

	var matches []*domain.ArtifactRecord
	filter := ports.ArtifactFilter{Limit: 250}
	for {
		batch, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, rec := range batch {
			if re.MatchString(rec.Name) || re.MatchString(rec.Reference) {
				matches = append(matches, rec)
			}
		}
		if len(batch) < filter.Limit {
			break
		}
		filter.Offset += len(batch)
	}

	if len(matches) == 0 {
		return nil, domain.ErrArtifactNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Name) < strings.ToLower(matches[j].Name)
	})
	return matches, nil
}

func (s *ArtifactService) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.ArtifactRecord, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}
	return s.repo.List(ctx, filter)
}

func (s *ArtifactService) Update(ctx context.Context, id string, updates map[string]interface{}) (*domain.ArtifactRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v, ok := updates["name"]; ok && v != nil {
		rec.Name = v.(string)
	}
	if v, ok := updates["license"]; ok && v != nil {
		rec.License = v.(string)
	}
	if v, ok := updates["size_mb"]; ok && v != nil {
		rec.SizeMB = v.(float64)
		rec.SizeKnown = true
	}
	if v, ok := updates["metadata"]; ok && v != nil {
		rec.Metadata = v.(map[string]string)
	}
	rec.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *ArtifactService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidArtifactID
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
