// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/pdiddy/theme-engine/pkg/types"
)

func cite(doc string, page, para, sent int) types.Citation {
	return types.Citation{
		DocumentID:     doc,
		Page:           page,
		ParagraphStart: para,
		ParagraphEnd:   para,
		SentenceStart:  sent,
		SentenceEnd:    sent + 1,
		Snippet:        "some snippet",
	}
}

func testClusters() []types.ThemeCluster {
	return []types.ThemeCluster{
		{
			ID:    0,
			Label: "First theme",
			Citations: []types.Citation{
				cite("doc-a", 1, 0, 0),
				cite("doc-a", 2, 4, 1),
				cite("doc-b", 1, 0, 0),
			},
		},
		{
			ID:    1,
			Label: "Second theme",
			Citations: []types.Citation{
				cite("doc-b", 1, 0, 0), // shared with first theme
				cite("doc-c", 3, 7, 2),
			},
		},
	}
}

func countKinds(g *types.CitationGraph) map[types.NodeKind]int {
	counts := make(map[types.NodeKind]int)
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	return counts
}

func TestBuildNodeAndEdgeCounts(t *testing.T) {
	g := Build(testClusters())

	counts := countKinds(g)
	if counts[types.NodeTheme] != 2 {
		t.Errorf("theme nodes = %d, want 2", counts[types.NodeTheme])
	}
	// 4 distinct citation spans: doc-b p1 is shared.
	if counts[types.NodeCitation] != 4 {
		t.Errorf("citation nodes = %d, want 4", counts[types.NodeCitation])
	}
	// doc-a, doc-b, doc-c appear once each across both themes.
	if counts[types.NodeDocument] != 3 {
		t.Errorf("document nodes = %d, want 3", counts[types.NodeDocument])
	}

	// 5 theme->citation edges, 4 distinct citation->document edges.
	if len(g.Edges) != 9 {
		t.Errorf("edges = %d, want 9", len(g.Edges))
	}
}

func TestBuildSharedCitationSingleNode(t *testing.T) {
	g := Build(testClusters())

	shared := CitationNodeID(cite("doc-b", 1, 0, 0))
	seen := 0
	for _, n := range g.Nodes {
		if n.ID == shared {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("shared citation node appears %d times, want 1", seen)
	}

	var inbound []string
	for _, e := range g.Edges {
		if e.To == shared {
			inbound = append(inbound, e.From)
		}
	}
	want := []string{ThemeNodeID(0), ThemeNodeID(1)}
	if !reflect.DeepEqual(inbound, want) {
		t.Errorf("inbound edges = %v, want %v", inbound, want)
	}
}

func TestBuildEdgesStayWithinGraph(t *testing.T) {
	g := Build(testClusters())

	ids := make(map[string]bool)
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.From] || !ids[e.To] {
			t.Errorf("edge %s -> %s references unknown node", e.From, e.To)
		}
	}
}

func TestBuildSkipsNoiseAndEmptyClusters(t *testing.T) {
	clusters := []types.ThemeCluster{
		{ID: types.NoiseClusterID, Members: []int{0, 1}, Citations: []types.Citation{cite("doc-x", 1, 0, 0)}},
		{ID: 0, Label: "No citations"},
	}
	g := Build(clusters)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph not empty: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestBuildEmptyInput(t *testing.T) {
	g := Build(nil)
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("nodes and edges should be empty slices, not nil")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph not empty")
	}
}

func TestBuildDeterministic(t *testing.T) {
	first := Build(testClusters())
	for i := 0; i < 10; i++ {
		if got := Build(testClusters()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs from first build", i)
		}
	}
}

func TestBuildOrderIndependentOfClusterSliceOrder(t *testing.T) {
	clusters := testClusters()
	reversed := []types.ThemeCluster{clusters[1], clusters[0]}

	if got, want := Build(reversed), Build(clusters); !reflect.DeepEqual(got, want) {
		t.Error("graph depends on cluster slice order")
	}
}

func TestGraphJSONRoundTrip(t *testing.T) {
	g := Build(testClusters())

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back types.CitationGraph
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&back, g) {
		t.Error("graph changed across JSON round trip")
	}
}

func TestCitationLabel(t *testing.T) {
	single := cite("doc-a", 2, 3, 1)
	if got := CitationLabel(single); got != "doc-a p.2 ¶3 s1-2" {
		t.Errorf("label = %q", got)
	}

	multi := single
	multi.ParagraphEnd = 5
	if got := CitationLabel(multi); got != "doc-a p.2 ¶3-5" {
		t.Errorf("label = %q", got)
	}
}
