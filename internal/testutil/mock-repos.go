package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// MockArtifactRepo is a mock of ArtifactRepository.
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) Create(ctx context.Context, rec *domain.ArtifactRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockArtifactRepo) GetByID(ctx context.Context, id string) (*domain.ArtifactRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArtifactRecord), args.Error(1)
}

func (m *MockArtifactRepo) GetByName(ctx context.Context, name string) ([]*domain.ArtifactRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ArtifactRecord), args.Error(1)
}

func (m *MockArtifactRepo) ResolveByName(ctx context.Context, name string, kind domain.ArtifactKind) (*domain.ArtifactRecord, error) {
	args := m.Called(ctx, name, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArtifactRecord), args.Error(1)
}

func (m *MockArtifactRepo) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.ArtifactRecord, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.ArtifactRecord), args.Int(1), args.Error(2)
}

func (m *MockArtifactRepo) Update(ctx context.Context, rec *domain.ArtifactRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockArtifactRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMetadataClient is a mock of MetadataClient.
type MockMetadataClient struct {
	mock.Mock
}

func (m *MockMetadataClient) FetchSize(ctx context.Context, reference string) (float64, bool, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockMetadataClient) FetchLicense(ctx context.Context, reference string) (string, bool, error) {
	args := m.Called(ctx, reference)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockMetadataClient) FetchRawRefs(ctx context.Context, reference string) ([]domain.RawRef, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawRef), args.Error(1)
}

// MockSourceHostClient is a mock of SourceHostClient.
type MockSourceHostClient struct {
	mock.Mock
}

func (m *MockSourceHostClient) FetchRepoLicense(ctx context.Context, repoURL string) (string, bool, error) {
	args := m.Called(ctx, repoURL)
	return args.String(0), args.Bool(1), args.Error(2)
}
