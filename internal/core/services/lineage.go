package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// LineageService assembles the provenance graph for a model root:
// every discovered node and edge, with external references kept as
// boundary nodes instead of being dropped.
type LineageService struct {
	repo     ports.ArtifactRepository
	resolver *ResolverService
	maxDepth int
	budget   time.Duration
}

func NewLineageService(repo ports.ArtifactRepository, resolver *ResolverService, opts EngineOptions) *LineageService {
	o := opts.withDefaults()
	return &LineageService{
		repo:     repo,
		resolver: resolver,
		maxDepth: o.MaxDepth,
		budget:   o.Budget,
	}
}

// ComputeLineage builds the lineage graph rooted at rootID. Lineage is
// defined for model roots only. Node identity is the artifact id for
// internal nodes and the canonical reference for external ones, so two
// runs over the same inputs produce the same sets.
func (s *LineageService) ComputeLineage(ctx context.Context, rootID string) (*domain.LineageGraph, error) {
	if strings.TrimSpace(rootID) == "" {
		return nil, domain.ErrInvalidArtifactID
	}

	root, err := loadArtifact(ctx, s.repo, rootID)
	if err != nil {
		return nil, err
	}
	if root.Kind != domain.KindModel {
		return nil, fmt.Errorf("artifact %s has kind %s, lineage requires a model: %w",
			root.ID, root.Kind, domain.ErrInvalidMetadata)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	walk := &lineageWalk{
		svc:       s,
		graph:     &domain.LineageGraph{},
		seenNodes: make(map[string]struct{}),
		seenEdges: make(map[string]struct{}),
	}
	if err := walk.visit(ctx, root, 0); err != nil {
		return nil, mapTraversalErr(parent, err, rootID)
	}
	return walk.graph, nil
}

type lineageWalk struct {
	svc       *LineageService
	graph     *domain.LineageGraph
	seenNodes map[string]struct{}
	seenEdges map[string]struct{}
}

func (w *lineageWalk) addNode(node domain.ResolvedNode) {
	if _, ok := w.seenNodes[node.ID()]; ok {
		return
	}
	w.seenNodes[node.ID()] = struct{}{}
	w.graph.Nodes = append(w.graph.Nodes, node)
}

func (w *lineageWalk) addEdge(edge domain.DependencyEdge) {
	if _, ok := w.seenEdges[edge.Key()]; ok {
		return
	}
	w.seenEdges[edge.Key()] = struct{}{}
	w.graph.Edges = append(w.graph.Edges, edge)
}

// visit shares the cost walk's policy: visited set as cycle guard,
// fixed depth bound, truncation instead of failure. External nodes are
// recorded and never expanded.
func (w *lineageWalk) visit(ctx context.Context, rec *domain.ArtifactRecord, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := w.seenNodes[rec.ID]; ok {
		return nil
	}
	w.addNode(domain.ResolvedNode{Record: rec, Reference: rec.Reference, Source: domain.SourceRegistryLink})

	// Same rule as the cost walk: a frontier node without stored hints
	// is a leaf, not a cut branch.
	if depth >= w.svc.maxDepth {
		if len(rec.RawRefs) > 0 {
			w.graph.Truncated = true
		}
		return nil
	}

	res, err := w.svc.resolver.ResolveEdges(ctx, rec)
	if err != nil {
		if depth > 0 && errors.Is(err, domain.ErrInvalidMetadata) {
			log.WithError(err).WithField("artifact_id", rec.ID).Warn("skipping malformed dependency")
			return nil
		}
		return err
	}

	for _, edge := range res.Edges {
		w.addEdge(edge)
	}
	for _, node := range res.Nodes {
		if node.External() {
			w.addNode(node)
			continue
		}
		if err := w.visit(ctx, node.Record, depth+1); err != nil {
			return err
		}
	}
	return nil
}
