package huggingface

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

const hubHost = "https://huggingface.co"

// Weight files carry the bulk of a model repo; everything else
// (tokenizers, readmes) is noise for costing purposes.
var weightExts = []string{".safetensors", ".bin", ".onnx", ".h5", ".msgpack", ".ot", ".gguf"}

var dataExts = []string{".parquet", ".csv", ".jsonl", ".json", ".tsv", ".gz", ".zip"}

type hubClient struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ ports.MetadataClient = (*hubClient)(nil)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func NewClient(cfg Config) ports.MetadataClient {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		baseURL = hubHost
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &hubClient{
		baseURL: baseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Hub API response structures
type repoInfo struct {
	ID       string     `json:"id"`
	Siblings []sibling  `json:"siblings"`
	CardData cardData   `json:"cardData"`
	Config   repoConfig `json:"config"`
}

type sibling struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size"`
}

// Card fields are free-form YAML upstream: base_model and datasets show
// up as a string or a list, so they decode through RawMessage.
type cardData struct {
	License   json.RawMessage `json:"license"`
	BaseModel json.RawMessage `json:"base_model"`
	Datasets  json.RawMessage `json:"datasets"`
}

type repoConfig struct {
	BaseModelNameOrPath string `json:"base_model_name_or_path"`
}

func (c *hubClient) FetchSize(ctx context.Context, reference string) (float64, bool, error) {
	info, kind, found, err := c.fetchInfo(ctx, reference)
	if err != nil || !found {
		return 0, false, err
	}

	exts := weightExts
	if kind == domain.KindDataset {
		exts = dataExts
	}

	var totalBytes int64
	counted := 0
	for _, s := range info.Siblings {
		if !hasDataExt(s.RFilename, exts, kind == domain.KindDataset) {
			continue
		}
		counted++
		totalBytes += s.Size
	}
	// No countable files means the hub cannot price this repo. A zero
	// byte sum over real files is an answer, not an absence.
	if counted == 0 {
		return 0, false, nil
	}
	return float64(totalBytes) / (1024 * 1024), true, nil
}

func (c *hubClient) FetchLicense(ctx context.Context, reference string) (string, bool, error) {
	info, _, found, err := c.fetchInfo(ctx, reference)
	if err != nil || !found {
		return "", false, err
	}

	values := stringValues(info.CardData.License)
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

func (c *hubClient) FetchRawRefs(ctx context.Context, reference string) ([]domain.RawRef, error) {
	info, kind, found, err := c.fetchInfo(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !found || kind != domain.KindModel {
		return nil, nil
	}

	var refs []domain.RawRef
	for _, v := range stringValues(info.CardData.BaseModel) {
		refs = append(refs, domain.RawRef{Value: v, Field: "base_model", Origin: domain.OriginCard})
	}
	for _, v := range stringValues(info.CardData.Datasets) {
		refs = append(refs, domain.RawRef{Value: v, Field: "datasets", Origin: domain.OriginCard})
	}
	if v := strings.TrimSpace(info.Config.BaseModelNameOrPath); v != "" {
		refs = append(refs, domain.RawRef{Value: v, Field: "base_model_name_or_path", Origin: domain.OriginConfig})
	}
	return refs, nil
}

// fetchInfo resolves a reference against the hub API. found=false means
// the hub answered and the repo is absent or unreadable; errors are
// reserved for not getting an answer at all.
func (c *hubClient) fetchInfo(ctx context.Context, reference string) (*repoInfo, domain.ArtifactKind, bool, error) {
	repoPath, kind, ok := hubRepoPath(reference)
	if !ok {
		return nil, kind, false, nil
	}

	endpoint := "/api/models/"
	if kind == domain.KindDataset {
		endpoint = "/api/datasets/"
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+endpoint+repoPath, nil)
	if err != nil {
		return nil, kind, false, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, kind, false, fmt.Errorf("hub request for %s: %v: %w", repoPath, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return nil, kind, false, nil
	default:
		return nil, kind, false, fmt.Errorf("hub responded %d for %s: %w", resp.StatusCode, repoPath, domain.ErrUpstreamUnavailable)
	}

	var info repoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, kind, false, fmt.Errorf("decode hub response for %s: %v: %w", repoPath, err, domain.ErrUpstreamUnavailable)
	}
	return &info, kind, true, nil
}

// hubRepoPath extracts the org/name path a hub URL addresses. Anything
// not on the hub is simply not this catalog's to answer.
func hubRepoPath(reference string) (string, domain.ArtifactKind, bool) {
	ref := domain.CanonicalizeReference(reference)
	if !strings.HasPrefix(strings.ToLower(ref), "https://huggingface.co/") {
		return "", domain.KindModel, false
	}
	kind := domain.KindForReference(ref)
	if kind == domain.KindCode {
		return "", kind, false
	}
	return domain.RefName(ref), kind, true
}

// hasDataExt matches the file extensions worth counting. Dataset repos
// additionally ship split archives (.z01, .z02, ...) that the plain
// extension list misses.
func hasDataExt(name string, exts []string, splitArchives bool) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	if splitArchives && len(lower) > 4 {
		tail := lower[len(lower)-4:]
		if strings.HasPrefix(tail, ".z") && isDigits(tail[2:]) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func stringValues(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, v := range list {
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
