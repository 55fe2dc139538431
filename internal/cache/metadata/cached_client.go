package metadata

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

// CachedClient wraps a MetadataClient with a TTL cache and request
// coalescing. Successful lookups are cached, including "not found"
// answers; failures are never cached, so a flaky upstream is retried on
// the next call instead of pinning the failure for a whole TTL.
type CachedClient struct {
	origin ports.MetadataClient
	store  *gocache.Cache
	group  singleflight.Group

	ttl         time.Duration
	negativeTTL time.Duration
	refsTTL     time.Duration
}

var _ ports.MetadataClient = (*CachedClient)(nil)

type Config struct {
	TTL         time.Duration
	NegativeTTL time.Duration
	RefsTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:         time.Hour,
		NegativeTTL: 5 * time.Minute,
		RefsTTL:     30 * time.Minute,
	}
}

func NewCachedClient(origin ports.MetadataClient, cfg Config) *CachedClient {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = def.NegativeTTL
	}
	if cfg.RefsTTL <= 0 {
		cfg.RefsTTL = def.RefsTTL
	}
	return &CachedClient{
		origin:      origin,
		store:       gocache.New(cfg.TTL, 10*time.Minute),
		ttl:         cfg.TTL,
		negativeTTL: cfg.NegativeTTL,
		refsTTL:     cfg.RefsTTL,
	}
}

type sizeResult struct {
	MB    float64
	Found bool
}

type licenseResult struct {
	License string
	Found   bool
}

func (c *CachedClient) FetchSize(ctx context.Context, reference string) (float64, bool, error) {
	key := "size:" + domain.CanonicalizeReference(reference)
	if v, ok := c.store.Get(key); ok {
		r := v.(sizeResult)
		return r.MB, r.Found, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		mb, found, err := c.origin.FetchSize(ctx, reference)
		if err != nil {
			return nil, err
		}
		r := sizeResult{MB: mb, Found: found}
		c.store.Set(key, r, c.ttlFor(found))
		return r, nil
	})
	if err != nil {
		return 0, false, err
	}
	r := v.(sizeResult)
	return r.MB, r.Found, nil
}

func (c *CachedClient) FetchLicense(ctx context.Context, reference string) (string, bool, error) {
	key := "license:" + domain.CanonicalizeReference(reference)
	if v, ok := c.store.Get(key); ok {
		r := v.(licenseResult)
		return r.License, r.Found, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		lic, found, err := c.origin.FetchLicense(ctx, reference)
		if err != nil {
			return nil, err
		}
		r := licenseResult{License: lic, Found: found}
		c.store.Set(key, r, c.ttlFor(found))
		return r, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(licenseResult)
	return r.License, r.Found, nil
}

func (c *CachedClient) FetchRawRefs(ctx context.Context, reference string) ([]domain.RawRef, error) {
	key := "refs:" + domain.CanonicalizeReference(reference)
	if v, ok := c.store.Get(key); ok {
		return copyRefs(v.([]domain.RawRef)), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		refs, err := c.origin.FetchRawRefs(ctx, reference)
		if err != nil {
			return nil, err
		}
		refs = copyRefs(refs)
		c.store.Set(key, refs, c.refsTTL)
		return refs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyRefs(v.([]domain.RawRef)), nil
}

func (c *CachedClient) ttlFor(found bool) time.Duration {
	if found {
		return c.ttl
	}
	return c.negativeTTL
}

// Cached slices are shared across callers, so hand out copies.
func copyRefs(refs []domain.RawRef) []domain.RawRef {
	if refs == nil {
		return nil
	}
	return append([]domain.RawRef(nil), refs...)
}
