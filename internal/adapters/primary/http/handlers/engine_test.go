package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"artifact-registry-service/internal/core/domain"
	"artifact-registry-service/internal/core/services"
	"artifact-registry-service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetArtifactCost(t *testing.T) {
	repo, catalog, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)
	catalog.On("FetchRawRefs", mock.Anything, rec.Reference).Return([]domain.RawRef{}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+rec.ID+"/cost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, rec.ID, resp["root_artifact_id"])
	assert.Equal(t, false, resp["truncated"])

	entries := resp["entries"].(map[string]interface{})
	assert.Len(t, entries, 1)
	entry := entries[rec.ID].(map[string]interface{})
	assert.Equal(t, 512.0, entry["standalone_cost_mb"])
	assert.Equal(t, 512.0, entry["total_cost_mb"])
}

func TestGetArtifactCost_RootOnly(t *testing.T) {
	repo, catalog, _, r := setupRouter()

	root := storedModel("org/a", 100)
	root.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	child := storedModel("org/b", 50)
	repo.On("GetByID", mock.Anything, root.ID).Return(root, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).Return(child, nil)
	catalog.On("FetchRawRefs", mock.Anything, child.Reference).Return([]domain.RawRef{}, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+root.ID+"/cost?include_dependencies=false", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	entries := resp["entries"].(map[string]interface{})
	assert.Len(t, entries, 1)

	// The filtered report still prices the whole subtree into the root.
	entry := entries[root.ID].(map[string]interface{})
	assert.Equal(t, 100.0, entry["standalone_cost_mb"])
	assert.Equal(t, 150.0, entry["total_cost_mb"])
}

func TestGetArtifactCost_InvalidQuery(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+rec.ID+"/cost?include_dependencies=banana", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetArtifactCost_NotFound(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	repo.On("GetByID", mock.Anything, rec.ID).Return(nil, domain.ErrArtifactNotFound)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+rec.ID+"/cost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetArtifactCost_UpstreamDown(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	repo.On("GetByID", mock.Anything, rec.ID).Return(nil, errors.New("connection refused"))

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+rec.ID+"/cost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetArtifactCost_BudgetExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(testutil.MockArtifactRepo)
	catalog := new(testutil.MockMetadataClient)
	resolver := services.NewResolverService(repo, catalog)
	costSvc := services.NewCostService(repo, catalog, resolver, services.EngineOptions{Budget: 5 * time.Millisecond})

	h := New(
		services.NewArtifactService(repo, catalog),
		costSvc,
		services.NewLineageService(repo, resolver, services.EngineOptions{}),
		services.NewLicenseService(repo, catalog, new(testutil.MockSourceHostClient)),
	)
	r := gin.New()
	api := r.Group("/api/v1/registry")
	h.RegisterRoutes(api)

	root := storedModel("org/a", 100)
	root.RawRefs = []domain.RawRef{{Value: "org/b", Field: "base_model", Origin: domain.OriginCard}}
	child := storedModel("org/b", 50)
	repo.On("GetByID", mock.Anything, root.ID).Return(root, nil)
	repo.On("ResolveByName", mock.Anything, "org/b", domain.KindModel).
		Run(func(mock.Arguments) { time.Sleep(40 * time.Millisecond) }).
		Return(child, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+root.ID+"/cost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestGetArtifactLineage(t *testing.T) {
	repo, _, _, r := setupRouter()

	root := storedModel("org/model", 512)
	root.RawRefs = []domain.RawRef{{Value: "ext/base", Field: "base_model", Origin: domain.OriginCard}}
	repo.On("GetByID", mock.Anything, root.ID).Return(root, nil)
	repo.On("ResolveByName", mock.Anything, "ext/base", domain.KindModel).Return(nil, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+root.ID+"/lineage", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, root.ID, resp["root_artifact_id"])

	nodes := resp["nodes"].([]interface{})
	assert.Len(t, nodes, 2)
	byID := make(map[string]map[string]interface{})
	for _, n := range nodes {
		node := n.(map[string]interface{})
		byID[node["artifact_id"].(string)] = node
	}
	assert.Equal(t, "registry_link", byID[root.ID]["source"])
	external := byID["ext/base"]
	assert.Equal(t, true, external["external"])
	assert.Equal(t, "card_metadata", external["source"])

	edges := resp["edges"].([]interface{})
	assert.Len(t, edges, 1)
	edge := edges[0].(map[string]interface{})
	assert.Equal(t, root.ID, edge["from_node_artifact_id"])
	assert.Equal(t, "ext/base", edge["to_node_artifact_id"])
	assert.Equal(t, "base_model", edge["relationship"])
}

func TestGetArtifactLineage_NonModelRoot(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/data", 10)
	rec.Kind = domain.KindDataset
	rec.ID = domain.NewArtifactID(domain.KindDataset, rec.Reference)
	repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	req, _ := http.NewRequest("GET", "/api/v1/registry/artifacts/"+rec.ID+"/lineage", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckArtifactLicense(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	rec.License = "Apache-2.0"
	repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	body, _ := json.Marshal(map[string]string{"consumer_license": "gpl-3.0"})
	req, _ := http.NewRequest("POST", "/api/v1/registry/artifacts/"+rec.ID+"/license-check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, true, resp["compatible"])
	assert.Equal(t, "apache-2.0", resp["producer_license"])
	assert.Equal(t, "permissive", resp["producer_class"])
	assert.Equal(t, "gpl-3.0", resp["consumer_license"])
}

func TestCheckArtifactLicense_NoConsumer(t *testing.T) {
	repo, _, _, r := setupRouter()

	rec := storedModel("org/model", 512)
	repo.On("GetByID", mock.Anything, rec.ID).Return(rec, nil)

	body, _ := json.Marshal(map[string]string{})
	req, _ := http.NewRequest("POST", "/api/v1/registry/artifacts/"+rec.ID+"/license-check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
