package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/ports/output"
)

const apiHost = "https://api.github.com"

type githubClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ ports.SourceHostClient = (*githubClient)(nil)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func NewClient(cfg Config) ports.SourceHostClient {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		baseURL = apiHost
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &githubClient{
		baseURL: baseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// GitHub license API response structures
type licenseResponse struct {
	License licenseInfo `json:"license"`
}

type licenseInfo struct {
	SpdxID string `json:"spdx_id"`
	Key    string `json:"key"`
}

// FetchRepoLicense asks GitHub what license a repo declares. NOASSERTION
// means the detector gave up, which is the same as having none.
func (c *githubClient) FetchRepoLicense(ctx context.Context, repoURL string) (string, bool, error) {
	owner, repo, ok := splitRepoURL(repoURL)
	if !ok {
		return "", false, nil
	}

	reqURL := fmt.Sprintf("%s/repos/%s/%s/license", c.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("github request for %s/%s: %v: %w", owner, repo, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("github responded %d for %s/%s: %w", resp.StatusCode, owner, repo, domain.ErrUpstreamUnavailable)
	}

	var lr licenseResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", false, fmt.Errorf("decode github response for %s/%s: %v: %w", owner, repo, err, domain.ErrUpstreamUnavailable)
	}

	spdx := strings.TrimSpace(lr.License.SpdxID)
	if spdx == "" || strings.EqualFold(spdx, "NOASSERTION") {
		return "", false, nil
	}
	return spdx, true, nil
}

func splitRepoURL(repoURL string) (string, string, bool) {
	ref := strings.TrimSuffix(strings.TrimSpace(repoURL), "/")
	lowered := strings.ToLower(ref)
	const prefix = "https://github.com/"
	if !strings.HasPrefix(lowered, prefix) {
		return "", "", false
	}
	parts := strings.Split(ref[len(prefix):], "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
