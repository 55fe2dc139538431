package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// EngineOptions bounds every traversal: how deep it may walk, how many
// metadata fetches may run at once, and how long the whole computation
// may take. Zero values fall back to the defaults.
type EngineOptions struct {
	MaxDepth int
	FanOut   int
	Budget   time.Duration
	MemoTTL  time.Duration
	MemoSize int
}

const (
	defaultMaxDepth = 10
	defaultFanOut   = 8
	defaultBudget   = 60 * time.Second
	defaultMemoTTL  = time.Hour
	defaultMemoSize = 4096
)

func (o EngineOptions) withDefaults() EngineOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	if o.FanOut <= 0 {
		o.FanOut = defaultFanOut
	}
	if o.Budget <= 0 {
		o.Budget = defaultBudget
	}
	if o.MemoTTL <= 0 {
		o.MemoTTL = defaultMemoTTL
	}
	if o.MemoSize <= 0 {
		o.MemoSize = defaultMemoSize
	}
	return o
}

// CostService computes standalone and transitive storage cost across
// the dependency graph of an artifact.
type CostService struct {
	repo     ports.ArtifactRepository
	catalog  ports.MetadataClient
	resolver *ResolverService
	opts     EngineOptions

	// memo holds per-artifact standalone entries computed in isolation.
	// Transitive totals are never memoized; they depend on the root.
	memo *expirable.LRU[string, domain.CostEntry]
}

func NewCostService(repo ports.ArtifactRepository, catalog ports.MetadataClient, resolver *ResolverService, opts EngineOptions) *CostService {
	o := opts.withDefaults()
	return &CostService{
		repo:     repo,
		catalog:  catalog,
		resolver: resolver,
		opts:     o,
		memo:     expirable.NewLRU[string, domain.CostEntry](o.MemoSize, nil, o.MemoTTL),
	}
}

// ComputeCost walks the dependency graph from rootID and returns a
// cost entry per visited artifact. Each entry's total sums the
// standalone costs of its distinct reachable set, so an artifact
// shared by two paths is charged once. With includeDependencies false
// the report carries only the root's entry; the traversal itself is
// unchanged because the root's total is transitive either way.
func (s *CostService) ComputeCost(ctx context.Context, rootID string, includeDependencies bool) (*domain.CostReport, error) {
	if strings.TrimSpace(rootID) == "" {
		return nil, domain.ErrInvalidArtifactID
	}

	root, err := loadArtifact(ctx, s.repo, rootID)
	if err != nil {
		return nil, err
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, s.opts.Budget)
	defer cancel()

	walk := newCostWalk(s)
	if err := walk.visit(ctx, root, 0); err != nil {
		return nil, mapTraversalErr(parent, err, rootID)
	}

	for id, entry := range walk.entries {
		entry.TotalMB = walk.reachableTotal(id)
		walk.entries[id] = entry
	}

	report := &domain.CostReport{
		Entries:   make(map[string]domain.CostEntry),
		Truncated: walk.truncated,
	}
	if includeDependencies {
		for id, entry := range walk.entries {
			report.Entries[id] = entry
		}
	} else {
		report.Entries[root.ID] = walk.entries[root.ID]
	}
	return report, nil
}

// standaloneEntry prices one artifact in isolation. Stored sizes win;
// otherwise the catalog is asked. A failed fetch is flagged and never
// memoized, so a later request retries instead of inheriting the
// failure for the whole TTL.
func (s *CostService) standaloneEntry(ctx context.Context, rec *domain.ArtifactRecord) domain.CostEntry {
	if entry, ok := s.memo.Get(rec.ID); ok {
		return entry
	}

	entry := domain.CostEntry{ArtifactID: rec.ID}
	switch {
	case rec.SizeKnown:
		entry.StandaloneMB = rec.SizeMB
	case rec.Reference != "":
		mb, found, err := s.catalog.FetchSize(ctx, rec.Reference)
		if err != nil {
			log.WithError(err).WithField("artifact_id", rec.ID).Warn("size fetch failed")
			entry.Unavailable = true
			entry.TotalMB = entry.StandaloneMB
			return entry
		}
		if found {
			entry.StandaloneMB = mb
		} else {
			entry.SizeUnknown = true
		}
	default:
		entry.SizeUnknown = true
	}

	entry.TotalMB = entry.StandaloneMB
	s.memo.Add(rec.ID, entry)
	return entry
}

type costWalk struct {
	svc       *CostService
	visited   map[string]struct{}
	entries   map[string]domain.CostEntry
	adjacency map[string][]string
	truncated bool
}

func newCostWalk(svc *CostService) *costWalk {
	return &costWalk{
		svc:       svc,
		visited:   make(map[string]struct{}),
		entries:   make(map[string]domain.CostEntry),
		adjacency: make(map[string][]string),
	}
}

// visit is a depth-first walk with a per-call visited set. The set
// doubles as the cycle guard: a revisit ends the branch silently.
func (w *costWalk) visit(ctx context.Context, rec *domain.ArtifactRecord, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := w.visited[rec.ID]; ok {
		return nil
	}
	w.visited[rec.ID] = struct{}{}
	w.entries[rec.ID] = w.svc.standaloneEntry(ctx, rec)

	// The bound also ends hint discovery, so stored hints are the only
	// signal that stopping here actually cut a branch off.
	if depth >= w.svc.opts.MaxDepth {
		if len(rec.RawRefs) > 0 {
			w.truncated = true
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

	children := make([]*domain.ArtifactRecord, 0, len(res.Nodes))
	internal := make(map[string]struct{}, len(res.Nodes))
	for _, node := range res.Nodes {
		if node.External() {
			continue
		}
		internal[node.ID()] = struct{}{}
		children = append(children, node.Record)
	}
	for _, edge := range res.Edges {
		if _, ok := internal[edge.ToID]; ok {
			w.adjacency[rec.ID] = append(w.adjacency[rec.ID], edge.ToID)
		}
	}

	// Warm the standalone memo for unpriced children before recursing,
	// bounded so a wide fan-out cannot flood the upstream catalog.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.svc.opts.FanOut)
	for _, child := range children {
		if child.SizeKnown {
			continue
		}
		if _, ok := w.visited[child.ID]; ok {
			continue
		}
		c := child
		g.Go(func() error {
			w.svc.standaloneEntry(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	for _, child := range children {
		if err := w.visit(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// reachableTotal sums standalone costs over the distinct set reachable
// from id within the collected subgraph. Cycles are harmless here: the
// local seen set makes the sum path-independent.
func (w *costWalk) reachableTotal(id string) float64 {
	seen := map[string]struct{}{id: {}}
	queue := []string{id}
	total := 0.0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		total += w.entries[current].StandaloneMB
		for _, next := range w.adjacency[current] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return total
}

// loadArtifact fetches a traversal root. Absence keeps its sentinel;
// any other storage failure surfaces as an upstream error so the
// caller can tell "gone" from "cannot ask right now".
func loadArtifact(ctx context.Context, repo ports.ArtifactRepository, id string) (*domain.ArtifactRecord, error) {
	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			return nil, err
		}
		log.WithError(err).WithField("artifact_id", id).Error("artifact load failed")
		return nil, fmt.Errorf("load artifact %s: %w", id, domain.ErrUpstreamUnavailable)
	}
	return rec, nil
}

// mapTraversalErr folds a context error into the engine taxonomy: the
// budget firing is a Timeout, the caller's own cancellation stays a
// context error.
func mapTraversalErr(parent context.Context, err error, rootID string) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("traversal of %s: %w", rootID, domain.ErrComputationTimeout)
	}
	return err
}
