package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// ResolverService turns a record's dependency hints into edges and
// resolved nodes. Resolution never mutates anything: the output is a
// function of the record and the lookup results.
type ResolverService struct {
	repo    ports.ArtifactRepository
	catalog ports.MetadataClient
}

func NewResolverService(repo ports.ArtifactRepository, catalog ports.MetadataClient) *ResolverService {
	return &ResolverService{repo: repo, catalog: catalog}
}

// ResolveEdges produces one hop of the dependency graph for rec.
// Hints come from the record itself, or from the catalog when the
// record carries none. A hint that matches no stored artifact becomes
// an external node, never an error; duplicate hints collapse on the
// (from, to, relationship) key.
func (s *ResolverService) ResolveEdges(ctx context.Context, rec *domain.ArtifactRecord) (*domain.Resolution, error) {
	if _, err := domain.ParseArtifactKind(string(rec.Kind)); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", rec.ID, domain.ErrInvalidMetadata)
	}

	refs := rec.RawRefs
	if len(refs) == 0 && rec.Kind == domain.KindModel && rec.Reference != "" {
		fetched, err := s.catalog.FetchRawRefs(ctx, rec.Reference)
		if err != nil {
			log.WithError(err).WithField("artifact_id", rec.ID).Warn("dependency hint fetch failed")
		} else {
			refs = fetched
		}
	}

	res := &domain.Resolution{}
	seenEdges := make(map[string]struct{})
	seenNodes := make(map[string]struct{})

	for _, ref := range refs {
		value := strings.TrimSpace(ref.Value)
		if value == "" {
			continue
		}

		relationship, kind := classifyHint(ref)
		node := s.resolveTarget(ctx, value, kind, hintSource(ref))

		edge := domain.DependencyEdge{
			FromID:       rec.ID,
			ToID:         node.ID(),
			Relationship: relationship,
			Source:       hintSource(ref),
		}
		if _, ok := seenEdges[edge.Key()]; ok {
			continue
		}
		seenEdges[edge.Key()] = struct{}{}
		res.Edges = append(res.Edges, edge)

		if _, ok := seenNodes[node.ID()]; !ok {
			seenNodes[node.ID()] = struct{}{}
			res.Nodes = append(res.Nodes, node)
		}
	}

	return res, nil
}

// resolveTarget matches one hint against the registry: direct id
// first, then name-based lookup. Storage trouble degrades to an
// external node so one bad lookup cannot sink a whole traversal.
func (s *ResolverService) resolveTarget(ctx context.Context, value string, kind domain.ArtifactKind, source domain.RefSource) domain.ResolvedNode {
	if _, err := uuid.Parse(value); err == nil {
		rec, err := s.repo.GetByID(ctx, value)
		if err == nil {
			return domain.ResolvedNode{Record: rec, Reference: value, Source: domain.SourceRegistryLink}
		}
	}

	rec, err := s.repo.ResolveByName(ctx, domain.RefName(value), kind)
	if err != nil {
		log.WithError(err).WithField("reference", value).Warn("name resolution failed")
	}
	if rec != nil {
		return domain.ResolvedNode{Record: rec, Reference: value, Source: domain.SourceRegistryLink}
	}

	return domain.ResolvedNode{Reference: value, Source: source}
}

func classifyHint(ref domain.RawRef) (domain.EdgeRelationship, domain.ArtifactKind) {
	switch strings.ToLower(strings.TrimSpace(ref.Field)) {
	case "base_model", "base_model_name_or_path":
		return domain.RelationBaseModel, domain.KindModel
	case "dataset", "datasets":
		return domain.RelationFineTuningDataset, domain.KindDataset
	case "code", "github", "repository":
		return domain.RelationTrainingCode, domain.KindCode
	}

	switch domain.KindForReference(ref.Value) {
	case domain.KindDataset:
		return domain.RelationFineTuningDataset, domain.KindDataset
	case domain.KindCode:
		return domain.RelationTrainingCode, domain.KindCode
	default:
		return domain.RelationOther, domain.KindModel
	}
}

func hintSource(ref domain.RawRef) domain.RefSource {
	switch ref.Origin {
	case domain.OriginConfig:
		return domain.SourceConfigMetadata
	case domain.OriginCard:
		return domain.SourceCardMetadata
	default:
		return domain.SourceRegistryLink
	}
}
