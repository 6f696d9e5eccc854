// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// --- test helpers ---

func passageAt(doc string, vec ...float64) types.Passage {
	return types.Passage{DocumentID: doc, Embedding: vec}
}

func euclideanCfg(eps float64, minSamples int) types.ClusterConfig {
	return types.ClusterConfig{Eps: eps, MinSamples: minSamples, Metric: types.MetricEuclidean}
}

// --- distance functions ---

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"scaled copies", []float64{1, 2}, []float64{2, 4}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	if got := euclideanDistance([]float64{0, 0}, []float64{3, 4}); math.Abs(got-5) > 1e-9 {
		t.Errorf("euclideanDistance = %v, want 5", got)
	}
}

func TestUnknownMetric(t *testing.T) {
	_, err := Cluster(nil, types.ClusterConfig{Metric: "manhattan"})
	if err == nil {
		t.Fatal("unknown metric accepted")
	}
}

// --- scenarios ---

func TestClusterSingleDenseGroup(t *testing.T) {
	// Three passages from two documents, all within eps of each other.
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-1", 0.1, 0),
		passageAt("doc-2", 0, 0.1),
	}

	out, err := Cluster(passages, euclideanCfg(0.5, 2))
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(out.Clusters))
	}
	if got := out.Clusters[0].Members; !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("members = %v, want [0 1 2]", got)
	}
	if len(out.Noise.Members) != 0 {
		t.Errorf("noise = %v, want empty", out.Noise.Members)
	}
}

func TestClusterTwoGroupsPlusNoise(t *testing.T) {
	// Two pairs separated by more than eps, plus one isolated passage.
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-2", 0.1, 0),
		passageAt("doc-1", 10, 0),
		passageAt("doc-3", 10.1, 0),
		passageAt("doc-4", 50, 50),
	}

	out, err := Cluster(passages, euclideanCfg(0.5, 2))
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(out.Clusters))
	}
	if out.Clusters[0].ID != 0 || out.Clusters[1].ID != 1 {
		t.Errorf("cluster ids = %d, %d, want 0, 1 in discovery order",
			out.Clusters[0].ID, out.Clusters[1].ID)
	}
	if !reflect.DeepEqual(out.Clusters[0].Members, []int{0, 1}) {
		t.Errorf("cluster 0 members = %v, want [0 1]", out.Clusters[0].Members)
	}
	if !reflect.DeepEqual(out.Clusters[1].Members, []int{2, 3}) {
		t.Errorf("cluster 1 members = %v, want [2 3]", out.Clusters[1].Members)
	}
	if !reflect.DeepEqual(out.Noise.Members, []int{4}) {
		t.Errorf("noise = %v, want [4]", out.Noise.Members)
	}
	if out.Noise.ID != types.NoiseClusterID {
		t.Errorf("noise id = %d, want %d", out.Noise.ID, types.NoiseClusterID)
	}
}

func TestClusterFewerThanMinSamplesAllNoise(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-2", 0, 0),
	}

	out, err := Cluster(passages, euclideanCfg(1.0, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Clusters) != 0 {
		t.Errorf("clusters = %d, want 0", len(out.Clusters))
	}
	if !reflect.DeepEqual(out.Noise.Members, []int{0, 1}) {
		t.Errorf("noise = %v, want [0 1]", out.Noise.Members)
	}
}

func TestClusterAllIdentical(t *testing.T) {
	var passages []types.Passage
	for i := 0; i < 6; i++ {
		passages = append(passages, passageAt("doc-1", 1, 2, 3))
	}

	out, err := Cluster(passages, euclideanCfg(0.001, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Clusters) != 1 || len(out.Clusters[0].Members) != 6 {
		t.Fatalf("identical passages should form one cluster of 6, got %+v", out.Clusters)
	}
}

func TestClusterDeterministic(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-2", 0.3, 0),
		passageAt("doc-1", 0.6, 0),
		passageAt("doc-3", 5, 5),
		passageAt("doc-2", 5.2, 5),
		passageAt("doc-4", 9, 0),
	}
	cfg := euclideanCfg(0.5, 1)

	first, err := Cluster(passages, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 10; run++ {
		again, err := Cluster(passages, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced a different assignment", run)
		}
	}
}

func TestClusterBorderlineJoinsFirstChain(t *testing.T) {
	// Passage 4 is within eps of exactly one core passage in each of two
	// dense groups but is not core itself. It must join the cluster whose
	// chain reaches it first in scan order, and must not be stolen when
	// the second cluster expands.
	passages := []types.Passage{
		passageAt("doc-1", 0.20), // group one
		passageAt("doc-1", 0.25),
		passageAt("doc-1", 0.30),
		passageAt("doc-1", 0.35),
		passageAt("doc-2", 0.50), // borderline, reachable from both groups
		passageAt("doc-3", 0.65), // group two
		passageAt("doc-3", 0.70),
		passageAt("doc-3", 0.75),
		passageAt("doc-3", 0.80),
	}

	out, err := Cluster(passages, euclideanCfg(0.16, 4))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(out.Clusters))
	}
	if got := out.Clusters[0].Members; !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("cluster 0 members = %v, want [0 1 2 3 4] (borderline joins first chain)", got)
	}
	if got := out.Clusters[1].Members; !reflect.DeepEqual(got, []int{5, 6, 7, 8}) {
		t.Errorf("cluster 1 members = %v, want [5 6 7 8]", got)
	}
	if len(out.Noise.Members) != 0 {
		t.Errorf("noise = %v, want empty", out.Noise.Members)
	}
}

// --- dimension mismatch ---

func TestClusterDimensionMismatch(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 1, 2),
		passageAt("doc-2", 1, 2, 3),
	}
	_, err := Cluster(passages, euclideanCfg(1, 1))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestClusterMissingEmbedding(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 1, 2),
		{DocumentID: "doc-2"},
	}
	_, err := Cluster(passages, euclideanCfg(1, 1))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("error = %v, want ErrDimensionMismatch", err)
	}
}

// --- document span filter ---

func TestClusterMinDocumentsFoldsIntoNoise(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-1", 0.1, 0),
		passageAt("doc-2", 10, 0),
		passageAt("doc-3", 10.1, 0),
	}
	cfg := euclideanCfg(0.5, 1)
	cfg.MinDocuments = 2

	out, err := Cluster(passages, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// The doc-1-only pair folds into noise; the cross-document pair
	// survives and is renumbered to id 0.
	if len(out.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(out.Clusters))
	}
	if out.Clusters[0].ID != 0 || !reflect.DeepEqual(out.Clusters[0].Members, []int{2, 3}) {
		t.Errorf("surviving cluster = %+v, want id 0 with members [2 3]", out.Clusters[0])
	}
	if !reflect.DeepEqual(out.Noise.Members, []int{0, 1}) {
		t.Errorf("noise = %v, want [0 1]", out.Noise.Members)
	}
}

// --- centroid ---

func TestCentroid(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-1", 2, 4),
	}
	got := Centroid(passages, []int{0, 1})
	if !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("Centroid = %v, want [1 2]", got)
	}
	if Centroid(passages, nil) != nil {
		t.Error("Centroid of no members should be nil")
	}
}

func TestClusterCentroidPopulated(t *testing.T) {
	passages := []types.Passage{
		passageAt("doc-1", 0, 0),
		passageAt("doc-2", 1, 0),
	}
	out, err := Cluster(passages, euclideanCfg(2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(out.Clusters))
	}
	if got := out.Clusters[0].Centroid; !reflect.DeepEqual(got, []float64{0.5, 0}) {
		t.Errorf("centroid = %v, want [0.5 0]", got)
	}
}
