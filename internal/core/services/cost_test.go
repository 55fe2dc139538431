package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/testutil"
)

func datasetRecord(reference, name string, sizeMB float64) *domain.ArtifactRecord {
	return &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindDataset, reference),
		Kind:      domain.KindDataset,
		Name:      name,
		Reference: reference,
		SizeMB:    sizeMB,
		SizeKnown: true,
	}
}

func newCostFixture(opts EngineOptions) (*CostService, *testutil.MockArtifactRepo, *testutil.MockMetadataClient) {
	repo := new(testutil.MockArtifactRepo)
	catalog := new(testutil.MockMetadataClient)
	resolver := NewResolverService(repo, catalog)
	return NewCostService(repo, catalog, resolver, opts), repo, catalog
}

// ============================================================================
// Single artifact
// ============================================================================

func TestCostService_ComputeCost_LeafArtifact(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	catalog.On("FetchRawRefs", mock.Anything, a.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, false)
	assert.NoError(t, err)
	assert.False(t, report.Truncated)
	assert.Len(t, report.Entries, 1)
	assert.Equal(t, 100.0, report.Entries[a.ID].StandaloneMB)
	assert.Equal(t, 100.0, report.Entries[a.ID].TotalMB)
}

func TestCostService_ComputeCost_EmptyID(t *testing.T) {
	svc, _, _ := newCostFixture(EngineOptions{})

	_, err := svc.ComputeCost(context.Background(), "   ", true)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifactID)
}

func TestCostService_ComputeCost_RootNotFound(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	repo.On("GetByID", mock.Anything, "missing-id").Return(nil, domain.ErrArtifactNotFound)

	_, err := svc.ComputeCost(context.Background(), "missing-id", true)
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestCostService_ComputeCost_RootLoadFailure(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	repo.On("GetByID", mock.Anything, "any-id").Return(nil, errors.New("connection refused"))

	_, err := svc.ComputeCost(context.Background(), "any-id", true)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestCostService_ComputeCost_RootMissingKind(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	broken := &domain.ArtifactRecord{
		ID:        "11111111-1111-5111-8111-111111111111",
		Reference: "https://huggingface.co/org/a",
		SizeMB:    10,
		SizeKnown: true,
	}
	repo.On("GetByID", mock.Anything, broken.ID).Return(broken, nil)

	_, err := svc.ComputeCost(context.Background(), broken.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidMetadata)
}

// ============================================================================
// Transitive totals
// ============================================================================

func TestCostService_ComputeCost_ChainChargesDependency(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)
	catalog.On("FetchRawRefs", mock.Anything, b.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, 100.0, report.Entries[a.ID].StandaloneMB)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
	assert.Equal(t, 50.0, report.Entries[b.ID].StandaloneMB)
	assert.Equal(t, 50.0, report.Entries[b.ID].TotalMB)
}

func TestCostService_ComputeCost_SharedDependencyChargedOnce(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 10)
	a.RawRefs = []domain.RawRef{
		{Value: "org/b", Field: "base_model", Origin: domain.OriginCard},
		{Value: "org/cmix", Field: "datasets", Origin: domain.OriginCard},
	}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 30)
	b.RawRefs = []domain.RawRef{{Value: "shared/corpus", Field: "datasets", Origin: domain.OriginCard}}
	c := datasetRecord("https://huggingface.co/datasets/org/cmix", "org/cmix", 40)
	c.RawRefs = []domain.RawRef{{Value: "shared/corpus", Field: "datasets", Origin: domain.OriginCard}}
	d := datasetRecord("https://huggingface.co/datasets/shared/corpus", "shared/corpus", 20)

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)
	repo.On("ResolveByName", mock.Anything, "org/cmix", domain.KindDataset).Return(c, nil)
	repo.On("ResolveByName", mock.Anything, "shared/corpus", domain.KindDataset).Return(d, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.Len(t, report.Entries, 4)
	assert.Equal(t, 100.0, report.Entries[a.ID].TotalMB)
	assert.Equal(t, 50.0, report.Entries[b.ID].TotalMB)
	assert.Equal(t, 60.0, report.Entries[c.ID].TotalMB)
	assert.Equal(t, 20.0, report.Entries[d.ID].TotalMB)
}

func TestCostService_ComputeCost_CycleTerminates(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)
	b.RawRefs = []domain.RawRef{{Value: "org/a", Field: "base_model", Origin: domain.OriginCard}}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)
	repo.On("ResolveByName", mock.Anything, "org/a", domain.KindModel).Return(a, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.False(t, report.Truncated)
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
	assert.Equal(t, 150.0, report.Entries[b.ID].TotalMB)
}

func TestCostService_ComputeCost_RootOnlyReport(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)
	catalog.On("FetchRawRefs", mock.Anything, b.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, false)
	assert.NoError(t, err)
	assert.Len(t, report.Entries, 1)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
}

func TestCostService_ComputeCost_ExternalDependencyNotCharged(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "unknown/base", Field: "base_model", Origin: domain.OriginCard}}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "unknown/base", domain.KindModel).Return(nil, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.Len(t, report.Entries, 1)
	assert.Equal(t, 100.0, report.Entries[a.ID].TotalMB)
}

// ============================================================================
// Bounds and degradation
// ============================================================================

func TestCostService_ComputeCost_DepthBoundTruncates(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{MaxDepth: 1})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)
	b.RawRefs = []domain.RawRef{{Value: "org/c", Field: "base_model", Origin: domain.OriginCard}}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
}

func TestCostService_ComputeCost_LeafAtDepthBoundNotTruncated(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{MaxDepth: 1})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.False(t, report.Truncated)
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
}

func TestCostService_ComputeCost_UnknownSizeFlagged(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindModel, "https://huggingface.co/org/b"),
		Kind:      domain.KindModel,
		Name:      "org/b",
		Reference: "https://huggingface.co/org/b",
	}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)
	catalog.On("FetchSize", mock.Anything, b.Reference).Return(0.0, false, nil)
	catalog.On("FetchRawRefs", mock.Anything, b.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.True(t, report.Entries[b.ID].SizeUnknown)
	assert.Equal(t, 0.0, report.Entries[b.ID].StandaloneMB)
	assert.Equal(t, 100.0, report.Entries[a.ID].TotalMB)
}

func TestCostService_ComputeCost_SizeFetchFailureFlaggedNotFatal(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindModel, "https://huggingface.co/org/a"),
		Kind:      domain.KindModel,
		Name:      "org/a",
		Reference: "https://huggingface.co/org/a",
	}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	catalog.On("FetchSize", mock.Anything, a.Reference).Return(0.0, false, errors.New("rate limited"))
	catalog.On("FetchRawRefs", mock.Anything, a.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.True(t, report.Entries[a.ID].Unavailable)
	assert.Equal(t, 0.0, report.Entries[a.ID].StandaloneMB)
}

func TestCostService_ComputeCost_FailedFetchNotMemoized(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindModel, "https://huggingface.co/org/a"),
		Kind:      domain.KindModel,
		Name:      "org/a",
		Reference: "https://huggingface.co/org/a",
	}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	catalog.On("FetchSize", mock.Anything, a.Reference).Return(0.0, false, errors.New("rate limited"))
	catalog.On("FetchRawRefs", mock.Anything, a.Reference).Return([]domain.RawRef{}, nil)

	_, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	_, err = svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)

	catalog.AssertNumberOfCalls(t, "FetchSize", 2)
}

func TestCostService_ComputeCost_StandaloneEntryMemoized(t *testing.T) {
	svc, repo, catalog := newCostFixture(EngineOptions{})

	a := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindModel, "https://huggingface.co/org/a"),
		Kind:      domain.KindModel,
		Name:      "org/a",
		Reference: "https://huggingface.co/org/a",
	}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	catalog.On("FetchSize", mock.Anything, a.Reference).Return(512.0, true, nil)
	catalog.On("FetchRawRefs", mock.Anything, a.Reference).Return([]domain.RawRef{}, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, 512.0, report.Entries[a.ID].StandaloneMB)

	_, err = svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)

	catalog.AssertNumberOfCalls(t, "FetchSize", 1)
}

func TestCostService_ComputeCost_MalformedDependencySkipped(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := &domain.ArtifactRecord{
		ID:        domain.NewArtifactID(domain.KindModel, "https://huggingface.co/org/b"),
		Name:      "org/b",
		Reference: "https://huggingface.co/org/b",
		SizeMB:    50,
		SizeKnown: true,
	}

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(b, nil)

	report, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.NoError(t, err)
	assert.Len(t, report.Entries, 2)
	assert.Equal(t, 150.0, report.Entries[a.ID].TotalMB)
}

// ============================================================================
// Budget and cancellation
// ============================================================================

func TestCostService_ComputeCost_BudgetExhaustedIsTimeout(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{Budget: 5 * time.Millisecond})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	a.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	b := modelRecord("https://huggingface.co/org/b", "org/b", 50)

	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).
		Run(func(args mock.Arguments) { time.Sleep(40 * time.Millisecond) }).
		Return(b, nil)

	_, err := svc.ComputeCost(context.Background(), a.ID, true)
	assert.ErrorIs(t, err, domain.ErrComputationTimeout)
}

func TestCostService_ComputeCost_CallerCancellationIsNotTimeout(t *testing.T) {
	svc, repo, _ := newCostFixture(EngineOptions{})

	a := modelRecord("https://huggingface.co/org/a", "org/a", 100)
	repo.On("GetByID", mock.Anything, a.ID).Return(a, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ComputeCost(ctx, a.ID, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrComputationTimeout)
}

func TestEngineOptions_Defaults(t *testing.T) {
	opts := EngineOptions{}.withDefaults()
	assert.Equal(t, 10, opts.MaxDepth)
	assert.Equal(t, 8, opts.FanOut)
	assert.Equal(t, 60*time.Second, opts.Budget)
	assert.Equal(t, time.Hour, opts.MemoTTL)
}
