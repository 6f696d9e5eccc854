// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// NoiseClusterID is the pseudo-cluster id holding passages not assigned to
// any theme. The noise set is never synthesized into a theme and is
// reported separately from real clusters.
const NoiseClusterID = -1

// ThemeCluster is a group of semantically related passages with a
// synthesized label, description, and aggregated citations. Member passages
// are referenced by index into the run's passage list; a cluster never owns
// its passages.
type ThemeCluster struct {
	// ID is the cluster id, stable within one run but not across runs.
	// Real clusters are numbered 0, 1, 2, ... in discovery order; the
	// noise set uses NoiseClusterID.
	ID int `json:"id" yaml:"id"`

	// Members are indices into the run-scoped passage list, in insertion
	// order.
	Members []int `json:"members" yaml:"members"`

	// Centroid is the mean of the member embeddings.
	Centroid []float64 `json:"centroid,omitempty" yaml:"centroid,omitempty"`

	// Label is the short synthesized theme label.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Description is the 1-3 sentence synthesized theme description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Citations is the deduplicated, sorted citation set derived from the
	// members. It never contains citations outside the member set.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`

	// Degraded marks a cluster whose label and description came from the
	// deterministic fallback after the generation provider failed.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// IsNoise reports whether the cluster is the noise pseudo-cluster.
func (c ThemeCluster) IsNoise() bool { return c.ID == NoiseClusterID }

// MemberCount returns the number of member passages.
func (c ThemeCluster) MemberCount() int { return len(c.Members) }

// NodeKind discriminates citation graph node types.
type NodeKind string

const (
	NodeTheme    NodeKind = "theme"
	NodeDocument NodeKind = "document"
	NodeCitation NodeKind = "citation"
)

// GraphNode is one node of the citation graph.
type GraphNode struct {
	// ID is the node's unique identifier within the graph.
	ID string `json:"id" yaml:"id"`

	// Kind is the node type: theme, document, or citation.
	Kind NodeKind `json:"kind" yaml:"kind"`

	// Label is display text: the theme label, document id, or citation
	// location string.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// GraphEdge is a directed edge between two graph nodes.
type GraphEdge struct {
	// From is the source node id.
	From string `json:"from" yaml:"from"`

	// To is the target node id.
	To string `json:"to" yaml:"to"`
}

// CitationGraph is the theme/citation/document structure consumed by the
// visualization layer: one theme node per cluster, an edge from each theme
// to each of its citations, and an edge from each citation to its owning
// document. Nodes and edges are unique and ordered deterministically.
// Derived per request; it has no lifecycle beyond the response it serves.
type CitationGraph struct {
	Nodes []GraphNode `json:"nodes" yaml:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges"`
}
