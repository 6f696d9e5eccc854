// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster groups passage embeddings into theme clusters plus a
// noise set using density-based clustering. The number of themes is not
// known up front and off-topic passages must stay out of every cluster,
// which rules out fixed-k centroid methods.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// ErrDimensionMismatch is returned when passage embeddings disagree on
// vector length. Fatal for the run: truncating or padding would corrupt
// every distance.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Output holds the discovered clusters and the noise pseudo-cluster.
type Output struct {
	// Clusters are the theme clusters in discovery order, ids 0, 1, 2, ...
	Clusters []types.ThemeCluster

	// Noise holds every unclustered passage under id -1. It is reported
	// separately and never synthesized into a theme.
	Noise types.ThemeCluster
}

// distanceFunc measures dissimilarity between two equal-length vectors.
type distanceFunc func(a, b []float64) float64

// metricFor selects the distance function for a configured metric tag.
func metricFor(m types.DistanceMetric) (distanceFunc, error) {
	switch m {
	case types.MetricCosine, "":
		return cosineDistance, nil
	case types.MetricEuclidean:
		return euclideanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", m)
	}
}

// Cluster runs density-based clustering over the passages' embeddings.
// A passage is a core point when its Eps-neighborhood, the passage itself
// included, holds at least cfg.MinSamples passages; clusters connect core
// points within Eps of each other and absorb their Eps-neighbors;
// everything unreachable from a core point is noise.
//
// Given identical input order and embeddings the assignment is identical
// across runs: expansion uses a FIFO queue seeded in passage insertion
// order, so a borderline passage reachable from two core chains joins the
// chain that reaches it first in scan order.
func Cluster(passages []types.Passage, cfg types.ClusterConfig) (Output, error) {
	dist, err := metricFor(cfg.Metric)
	if err != nil {
		return Output{}, err
	}
	if err := checkDimensions(passages); err != nil {
		return Output{}, err
	}

	n := len(passages)
	neighbors := neighborLists(passages, cfg.Eps, dist)

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	nextID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		if len(neighbors[i])+1 < cfg.MinSamples {
			labels[i] = types.NoiseClusterID
			continue
		}

		id := nextID
		nextID++
		labels[i] = id

		queue := append([]int(nil), neighbors[i]...)
		for head := 0; head < len(queue); head++ {
			j := queue[head]
			if labels[j] == types.NoiseClusterID {
				labels[j] = id // border point absorbed by the first chain to reach it
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = id
			if len(neighbors[j])+1 >= cfg.MinSamples {
				queue = append(queue, neighbors[j]...)
			}
		}
	}

	return assemble(passages, labels, nextID, cfg), nil
}

// neighborLists returns, for each passage, the insertion-ordered indices
// of the other passages within eps.
func neighborLists(passages []types.Passage, eps float64, dist distanceFunc) [][]int {
	n := len(passages)
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dist(passages[i].Embedding, passages[j].Embedding) <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}
	return neighbors
}

// checkDimensions verifies every passage carries an embedding of the same
// length.
func checkDimensions(passages []types.Passage) error {
	dim := -1
	for i, p := range passages {
		if len(p.Embedding) == 0 {
			return fmt.Errorf("passage %d (%s) has no embedding: %w", i, p.DocumentID, ErrDimensionMismatch)
		}
		if dim < 0 {
			dim = len(p.Embedding)
			continue
		}
		if len(p.Embedding) != dim {
			return fmt.Errorf("passage %d (%s) has dimension %d, expected %d: %w",
				i, p.DocumentID, len(p.Embedding), dim, ErrDimensionMismatch)
		}
	}
	return nil
}

// assemble builds ThemeCluster records from the label assignment, folds
// clusters spanning fewer than cfg.MinDocuments distinct documents into
// noise, and renumbers surviving cluster ids in discovery order.
func assemble(passages []types.Passage, labels []int, clusterCount int, cfg types.ClusterConfig) Output {
	members := make([][]int, clusterCount)
	var noise []int
	for i, label := range labels {
		if label == types.NoiseClusterID {
			noise = append(noise, i)
			continue
		}
		members[label] = append(members[label], i)
	}

	var out Output
	for _, m := range members {
		if cfg.MinDocuments > 1 && distinctDocuments(passages, m) < cfg.MinDocuments {
			noise = append(noise, m...)
			continue
		}
		out.Clusters = append(out.Clusters, types.ThemeCluster{
			ID:       len(out.Clusters),
			Members:  m,
			Centroid: Centroid(passages, m),
		})
	}

	// Keep noise membership in passage insertion order after folded
	// clusters are appended.
	sort.Ints(noise)
	out.Noise = types.ThemeCluster{ID: types.NoiseClusterID, Members: noise}
	return out
}

// Centroid returns the mean embedding of the member passages.
func Centroid(passages []types.Passage, members []int) []float64 {
	if len(members) == 0 {
		return nil
	}
	dim := len(passages[members[0]].Embedding)
	centroid := make([]float64, dim)
	for _, m := range members {
		for d, v := range passages[m].Embedding {
			centroid[d] += v
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(members))
	}
	return centroid
}

func distinctDocuments(passages []types.Passage, members []int) int {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		seen[passages[m].DocumentID] = true
	}
	return len(seen)
}

// cosineDistance is 1 minus cosine similarity. A zero vector is treated
// as maximally dissimilar (distance 1) rather than producing NaN.
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
