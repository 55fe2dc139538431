package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

const objectPrefix = "artifacts/"

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	CacheSize int
}

// artifactStore keeps one JSON object per record under artifacts/<id>.json.
// Name lookups scan the bucket, so an LRU of decoded records sits in
// front; every write refreshes or drops the cached copy.
type artifactStore struct {
	client *minio.Client
	bucket string
	region string

	initOnce sync.Once
	initErr  error

	cache *lru.Cache[string, *domain.ArtifactRecord]
}

func NewArtifactStore(cfg Config) (ports.ArtifactRepository, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	cache, err := lru.New[string, *domain.ArtifactRecord](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("init record cache: %w", err)
	}

	return &artifactStore{
		client: client,
		bucket: bucket,
		region: region,
		cache:  cache,
	}, nil
}

func (s *artifactStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *artifactStore) Create(ctx context.Context, rec *domain.ArtifactRecord) error {
	if _, err := s.GetByID(ctx, rec.ID); err == nil {
		return domain.ErrArtifactConflict
	} else if !errors.Is(err, domain.ErrArtifactNotFound) {
		return err
	}
	return s.put(ctx, rec)
}

func (s *artifactStore) GetByID(ctx context.Context, id string) (*domain.ArtifactRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return cloneRecord(rec), nil
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get artifact object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("read artifact object: %w", err)
	}

	rec := &domain.ArtifactRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", id, err)
	}
	s.cache.Add(id, cloneRecord(rec))
	return rec, nil
}

func (s *artifactStore) GetByName(ctx context.Context, name string) ([]*domain.ArtifactRecord, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var recs []*domain.ArtifactRecord
	for _, rec := range all {
		if strings.EqualFold(rec.Name, name) {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (s *artifactStore) ResolveByName(ctx context.Context, name string, kind domain.ArtifactKind) (*domain.ArtifactRecord, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	var byName, byReference *domain.ArtifactRecord
	suffix := "/" + strings.ToLower(name)
	for _, rec := range all {
		if rec.Kind != kind {
			continue
		}
		if strings.EqualFold(rec.Name, name) && newerThan(rec, byName) {
			byName = rec
		}
		ref := strings.ToLower(rec.Reference)
		if (ref == strings.ToLower(name) || strings.HasSuffix(ref, suffix)) && newerThan(rec, byReference) {
			byReference = rec
		}
	}
	if byName != nil {
		return byName, nil
	}
	return byReference, nil
}

func (s *artifactStore) List(ctx context.Context, filter ports.ArtifactFilter) ([]*domain.ArtifactRecord, int, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	var filtered []*domain.ArtifactRecord
	for _, rec := range all {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.Name != "" && !strings.EqualFold(rec.Name, filter.Name) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID < filtered[j].ID
	})

	total := len(filtered)
	if filter.Offset >= total {
		return []*domain.ArtifactRecord{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return filtered[filter.Offset:end], total, nil
}

func (s *artifactStore) Update(ctx context.Context, rec *domain.ArtifactRecord) error {
	if _, err := s.GetByID(ctx, rec.ID); err != nil {
		return err
	}
	return s.put(ctx, rec)
}

func (s *artifactStore) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(id), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete artifact object: %w", err)
	}
	s.cache.Remove(id)
	return nil
}

func (s *artifactStore) put(ctx context.Context, rec *domain.ArtifactRecord) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", rec.ID, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey(rec.ID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put artifact object: %w", err)
	}
	s.cache.Add(rec.ID, cloneRecord(rec))
	return nil
}

func (s *artifactStore) loadAll(ctx context.Context) ([]*domain.ArtifactRecord, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	var recs []*domain.ArtifactRecord
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list artifact objects: %w", obj.Err)
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, objectPrefix), ".json")
		if id == "" {
			continue
		}
		rec, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrArtifactNotFound) {
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func objectKey(id string) string {
	return objectPrefix + id + ".json"
}

func newerThan(rec, other *domain.ArtifactRecord) bool {
	return other == nil || rec.CreatedAt.After(other.CreatedAt)
}

// Cached records are shared across callers, so reads and writes go
// through copies.
func cloneRecord(rec *domain.ArtifactRecord) *domain.ArtifactRecord {
	c := *rec
	if rec.RawRefs != nil {
		c.RawRefs = append([]domain.RawRef(nil), rec.RawRefs...)
	}
	if rec.Metadata != nil {
		c.Metadata = make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
