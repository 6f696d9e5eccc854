// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph derives the citation graph from synthesized theme
// clusters: theme -> citation -> document. The graph is a pure function
// of the clusters, so building it twice from the same input yields
// identical node and edge orderings.
package graph

import (
	"fmt"
	"sort"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// Build constructs the citation graph for the given clusters. The noise
// pseudo-cluster and clusters without citations contribute nothing.
// Document and citation nodes are shared across themes: a citation span
// referenced by two clusters appears once, with an edge from each theme.
func Build(clusters []types.ThemeCluster) *types.CitationGraph {
	g := &types.CitationGraph{
		Nodes: []types.GraphNode{},
		Edges: []types.GraphEdge{},
	}

	seenNodes := make(map[string]bool)
	seenEdges := make(map[types.GraphEdge]bool)

	addNode := func(n types.GraphNode) {
		if !seenNodes[n.ID] {
			seenNodes[n.ID] = true
			g.Nodes = append(g.Nodes, n)
		}
	}
	addEdge := func(e types.GraphEdge) {
		if !seenEdges[e] {
			seenEdges[e] = true
			g.Edges = append(g.Edges, e)
		}
	}

	ordered := append([]types.ThemeCluster(nil), clusters...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	for _, cluster := range ordered {
		if cluster.IsNoise() || len(cluster.Citations) == 0 {
			continue
		}

		themeID := ThemeNodeID(cluster.ID)
		addNode(types.GraphNode{ID: themeID, Kind: types.NodeTheme, Label: cluster.Label})

		for _, c := range cluster.Citations {
			citationID := CitationNodeID(c)
			docID := DocumentNodeID(c.DocumentID)

			addNode(types.GraphNode{ID: citationID, Kind: types.NodeCitation, Label: CitationLabel(c)})
			addNode(types.GraphNode{ID: docID, Kind: types.NodeDocument, Label: c.DocumentID})

			addEdge(types.GraphEdge{From: themeID, To: citationID})
			addEdge(types.GraphEdge{From: citationID, To: docID})
		}
	}

	return g
}

// ThemeNodeID returns the node id for a theme cluster.
func ThemeNodeID(clusterID int) string {
	return fmt.Sprintf("theme:%d", clusterID)
}

// DocumentNodeID returns the node id for a document.
func DocumentNodeID(documentID string) string {
	return "doc:" + documentID
}

// CitationNodeID returns the node id for a citation span. It encodes the
// full span identity, so two citations share a node exactly when they
// point at the same location.
func CitationNodeID(c types.Citation) string {
	return fmt.Sprintf("cite:%s:p%d:%d-%d:s%d-%d",
		c.DocumentID, c.Page, c.ParagraphStart, c.ParagraphEnd, c.SentenceStart, c.SentenceEnd)
}

// CitationLabel renders a human-readable location string for display.
func CitationLabel(c types.Citation) string {
	if c.ParagraphStart == c.ParagraphEnd {
		return fmt.Sprintf("%s p.%d ¶%d s%d-%d", c.DocumentID, c.Page, c.ParagraphStart, c.SentenceStart, c.SentenceEnd)
	}
	return fmt.Sprintf("%s p.%d ¶%d-%d", c.DocumentID, c.Page, c.ParagraphStart, c.ParagraphEnd)
}
