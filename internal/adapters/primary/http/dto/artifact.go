package dto

import (
	"time"

	"artifact-registry-service/internal/core/domain"
)

// ============================================================================
// Artifact DTOs
// ============================================================================

type RegisterArtifactRequest struct {
	Kind      string `json:"kind" binding:"required"`
	Reference string `json:"reference" binding:"required,max=500"`
	Name      string `json:"name" binding:"max=200"`
}

type SearchArtifactsRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

type UpdateArtifactRequest struct {
	Name     *string           `json:"name"`
	License  *string           `json:"license"`
	SizeMB   *float64          `json:"size_mb"`
	Metadata map[string]string `json:"metadata"`
}

type RawRefResponse struct {
	Value  string `json:"value"`
	Field  string `json:"field"`
	Origin string `json:"origin,omitempty"`
}

// ArtifactResponse renders a record for the API. SizeMB is null when
// the size has never been established, so clients can tell "0 MB"
// apart from "unknown".
type ArtifactResponse struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Kind      string            `json:"kind"`
	Name      string            `json:"name"`
	Reference string            `json:"reference"`
	License   string            `json:"license,omitempty"`
	SizeMB    *float64          `json:"size_mb"`
	RawRefs   []RawRefResponse  `json:"raw_refs,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type ListArtifactsResponse struct {
	Items      []ArtifactResponse `json:"items"`
	Total      int                `json:"total"`
	PageSize   int                `json:"page_size"`
	NextOffset int                `json:"next_offset"`
}

// ArtifactsByNameResponse is the unpaged result of a name lookup.
// One name can resolve to several records when kinds collide.
type ArtifactsByNameResponse struct {
	Items []ArtifactResponse `json:"items"`
	Total int                `json:"total"`
}

type SearchArtifactsResponse struct {
	Items []ArtifactResponse `json:"items"`
	Total int                `json:"total"`
}

func ToArtifactResponse(rec *domain.ArtifactRecord) ArtifactResponse {
	resp := ArtifactResponse{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Kind:      string(rec.Kind),
		Name:      rec.Name,
		Reference: rec.Reference,
		License:   rec.License,
		Metadata:  rec.Metadata,
	}
	if rec.SizeKnown {
		size := rec.SizeMB
		resp.SizeMB = &size
	}
	for _, ref := range rec.RawRefs {
		resp.RawRefs = append(resp.RawRefs, RawRefResponse{
			Value:  ref.Value,
			Field:  ref.Field,
			Origin: string(ref.Origin),
		})
	}
	return resp
}
