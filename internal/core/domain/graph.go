package domain

type EdgeRelationship string

const (
	RelationBaseModel         EdgeRelationship = "base_model"
	RelationFineTuningDataset EdgeRelationship = "fine_tuning_dataset"
	RelationTrainingCode      EdgeRelationship = "training_code"
	RelationOther             EdgeRelationship = "other"
)

// RefSource records where a dependency edge was discovered.
type RefSource string

const (
	SourceConfigMetadata RefSource = "config_metadata"
	SourceCardMetadata   RefSource = "card_metadata"
	SourceRegistryLink   RefSource = "registry_link"
)

// DependencyEdge is a directed relation between two graph nodes. Edges
// are derived per request and never persisted. Identity is the
// (FromID, ToID, Relationship) triple.
type DependencyEdge struct {
	FromID       string           `json:"from_node_artifact_id"`
	ToID         string           `json:"to_node_artifact_id"`
	Relationship EdgeRelationship `json:"relationship"`
	Source       RefSource        `json:"source"`
}

func (e DependencyEdge) Key() string {
	return e.FromID + "|" + e.ToID + "|" + string(e.Relationship)
}

// ResolvedNode is one endpoint of a dependency edge: either a record
// known to the registry, or an external placeholder for a reference
// that matched nothing. External nodes never have outgoing edges.
type ResolvedNode struct {
	// Record is nil for external nodes.
	Record *ArtifactRecord
	// Reference is the original raw reference that produced the node.
	Reference string
	// Source is how the node was discovered: SourceRegistryLink for
	// internal nodes, the raw ref's discovery source for external ones.
	Source RefSource
}

func (n ResolvedNode) External() bool { return n.Record == nil }

// ID is the node's graph identity: the artifact id for internal nodes,
// the canonical reference string for external ones.
func (n ResolvedNode) ID() string {
	if n.Record != nil {
		return n.Record.ID
	}
	return CanonicalizeReference(n.Reference)
}

func (n ResolvedNode) Name() string {
	if n.Record != nil {
		return n.Record.Name
	}
	return RefName(n.Reference)
}

// Resolution is one hop of dependency discovery: the edges leaving a
// record plus the nodes those edges point at.
type Resolution struct {
	Edges []DependencyEdge
	Nodes []ResolvedNode
}

// CostEntry is the per-artifact cost result. TotalMB is always at
// least StandaloneMB, with equality exactly when the artifact has no
// resolvable internal dependencies. SizeUnknown flags a legitimately
// absent size; Unavailable flags a failed upstream size fetch. Both
// contribute zero, but callers may retry an Unavailable entry.
type CostEntry struct {
	ArtifactID   string  `json:"artifact_id"`
	StandaloneMB float64 `json:"standalone_cost_mb"`
	TotalMB      float64 `json:"total_cost_mb"`
	SizeUnknown  bool    `json:"size_unknown,omitempty"`
	Unavailable  bool    `json:"unavailable,omitempty"`
}

// CostReport is the result of one cost computation rooted at an
// artifact. Truncated is set when the depth bound cut the traversal;
// a truncated report is still well-formed, just not exhaustive.
type CostReport struct {
	Entries   map[string]CostEntry `json:"entries"`
	Truncated bool                 `json:"truncated"`
}

// LineageGraph is the presentation graph for one root: every edge
// endpoint appears in Nodes, cycles are possible, and traversal depth
// is bounded (Truncated marks a cut).
type LineageGraph struct {
	Nodes     []ResolvedNode
	Edges     []DependencyEdge
	Truncated bool
}
