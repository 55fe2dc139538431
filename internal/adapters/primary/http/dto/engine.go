package dto

import (
	"artifact-registry-service/internal/core/domain"
)

// ============================================================================
// Cost Report DTOs
// ============================================================================

type CostEntryResponse struct {
	ArtifactID   string  `json:"artifact_id"`
	StandaloneMB float64 `json:"standalone_cost_mb"`
	TotalMB      float64 `json:"total_cost_mb"`
	SizeUnknown  bool    `json:"size_unknown,omitempty"`
	Unavailable  bool    `json:"unavailable,omitempty"`
}

type CostReportResponse struct {
	RootArtifactID string                       `json:"root_artifact_id"`
	Entries        map[string]CostEntryResponse `json:"entries"`
	Truncated      bool                         `json:"truncated"`
}

func ToCostReportResponse(rootID string, report *domain.CostReport) CostReportResponse {
	entries := make(map[string]CostEntryResponse, len(report.Entries))
	for id, entry := range report.Entries {
		entries[id] = CostEntryResponse{
			ArtifactID:   entry.ArtifactID,
			StandaloneMB: entry.StandaloneMB,
			TotalMB:      entry.TotalMB,
			SizeUnknown:  entry.SizeUnknown,
			Unavailable:  entry.Unavailable,
		}
	}
	return CostReportResponse{
		RootArtifactID: rootID,
		Entries:        entries,
		Truncated:      report.Truncated,
	}
}

// ============================================================================
// Lineage DTOs
// ============================================================================

type LineageNodeResponse struct {
	ArtifactID string `json:"artifact_id"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	External   bool   `json:"external,omitempty"`
}

type LineageEdgeResponse struct {
	FromNodeArtifactID string `json:"from_node_artifact_id"`
	ToNodeArtifactID   string `json:"to_node_artifact_id"`
	Relationship       string `json:"relationship"`
	Source             string `json:"source"`
}

type LineageResponse struct {
	RootArtifactID string                `json:"root_artifact_id"`
	Nodes          []LineageNodeResponse `json:"nodes"`
	Edges          []LineageEdgeResponse `json:"edges"`
	Truncated      bool                  `json:"truncated"`
}

func ToLineageResponse(rootID string, graph *domain.LineageGraph) LineageResponse {
	resp := LineageResponse{
		RootArtifactID: rootID,
		Nodes:          make([]LineageNodeResponse, 0, len(graph.Nodes)),
		Edges:          make([]LineageEdgeResponse, 0, len(graph.Edges)),
		Truncated:      graph.Truncated,
	}
	for _, node := range graph.Nodes {
		resp.Nodes = append(resp.Nodes, LineageNodeResponse{
			ArtifactID: node.ID(),
			Name:       node.Name(),
			Source:     string(node.Source),
			External:   node.External(),
		})
	}
	for _, edge := range graph.Edges {
		resp.Edges = append(resp.Edges, LineageEdgeResponse{
			FromNodeArtifactID: edge.FromID,
			ToNodeArtifactID:   edge.ToID,
			Relationship:       string(edge.Relationship),
			Source:             string(edge.Source),
		})
	}
	return resp
}

// ============================================================================
// License Check DTOs
// ============================================================================

// LicenseCheckRequest carries the consumer side of a compatibility
// check. Exactly one of the two fields has to be set; the handler
// rejects requests with neither.
type LicenseCheckRequest struct {
	ConsumerLicense string `json:"consumer_license"`
	ConsumerRepoURL string `json:"consumer_repo_url"`
}

type LicenseCheckResponse struct {
	Compatible          bool   `json:"compatible"`
	ProducerLicense     string `json:"producer_license"`
	ProducerClass       string `json:"producer_class"`
	ConsumerLicense     string `json:"consumer_license"`
	ConsumerClass       string `json:"consumer_class"`
	ProducerUnavailable bool   `json:"producer_unavailable,omitempty"`
}

func ToLicenseCheckResponse(check *domain.LicenseCheck) LicenseCheckResponse {
	return LicenseCheckResponse{
		Compatible:          check.Compatible,
		ProducerLicense:     check.ProducerLicense,
		ProducerClass:       string(check.ProducerClass),
		ConsumerLicense:     check.ConsumerLicense,
		ConsumerClass:       string(check.ConsumerClass),
		ProducerUnavailable: check.ProducerUnavailable,
	}
}
