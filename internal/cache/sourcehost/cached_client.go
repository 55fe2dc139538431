package sourcehost

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"artifact-registry-service/internal/core/ports/output"
)

// CachedClient caches repo license detection. Repo licenses change
// rarely, so hits are long-lived; failures pass through uncached, the
// same policy the metadata cache follows.
type CachedClient struct {
	origin ports.SourceHostClient
	store  *gocache.Cache
	group  singleflight.Group

	ttl         time.Duration
	negativeTTL time.Duration
}

var _ ports.SourceHostClient = (*CachedClient)(nil)

type Config struct {
	TTL         time.Duration
	NegativeTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:         time.Hour,
		NegativeTTL: 5 * time.Minute,
	}
}

func NewCachedClient(origin ports.SourceHostClient, cfg Config) *CachedClient {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = def.NegativeTTL
	}
	return &CachedClient{
		origin:      origin,
		store:       gocache.New(cfg.TTL, 10*time.Minute),
		ttl:         cfg.TTL,
		negativeTTL: cfg.NegativeTTL,
	}
}

type licenseResult struct {
	License string
	Found   bool
}

func (c *CachedClient) FetchRepoLicense(ctx context.Context, repoURL string) (string, bool, error) {
	key := "repolicense:" + repoURL
	if v, ok := c.store.Get(key); ok {
		r := v.(licenseResult)
		return r.License, r.Found, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		lic, found, err := c.origin.FetchRepoLicense(ctx, repoURL)
		if err != nil {
			return nil, err
		}
		r := licenseResult{License: lic, Found: found}
		ttl := c.ttl
		if !found {
			ttl = c.negativeTTL
		}
		c.store.Set(key, r, ttl)
		return r, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(licenseResult)
	return r.License, r.Found, nil
}
