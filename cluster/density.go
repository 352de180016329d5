// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cluster

import (
	"sort"

	"github.com/poiesic/thematic/core"
)

// densityCluster labels each point with a cluster id >= 0 or core.NoiseLabel.
//
// The pass follows the mutual-reachability formulation: each point's core
// distance is its distance to the minSamples-th nearest neighbor, pairwise
// distances are lifted to mutual reachability, and a minimum spanning tree
// over that metric is cut at an edge-weight gap (mean + one standard
// deviation over tree edges). Connected components at the cut become
// clusters; components below minClusterSize are demoted to noise. If no
// component survives, the whole connected dataset is allowed to form a
// single cluster rather than dissolving everything into noise.
func densityCluster(points [][]float64, minClusterSize, minSamples int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = core.NoiseLabel
	}
	if n == 0 {
		return labels
	}
	if n == 1 {
		if minClusterSize <= 1 {
			labels[0] = 0
		}
		return labels
	}

	dist := pairwiseDistances(points)
	coreDist := coreDistances(dist, minSamples)

	reach := func(i, j int) float64 {
		d := dist[i][j]
		if coreDist[i] > d {
			d = coreDist[i]
		}
		if coreDist[j] > d {
			d = coreDist[j]
		}
		return d
	}

	edges := spanningTree(n, reach)

	weights := make([]float64, len(edges))
	for i, e := range edges {
		weights[i] = e.weight
	}
	cutoff := meanFloat(weights) + stdFloat(weights)

	uf := newUnionFind(n)
	for _, e := range edges {
		if e.weight <= cutoff {
			uf.union(e.a, e.b)
		}
	}

	assignComponentLabels(labels, uf, minClusterSize)

	if !hasCluster(labels) && n >= minClusterSize {
		// allow-single-cluster: accept the full tree as one cluster
		for i := range labels {
			labels[i] = 0
		}
	}

	return labels
}

// coreDistances returns each point's distance to its minSamples-th nearest
// neighbor (self excluded). minSamples is clamped to the dataset size.
func coreDistances(dist [][]float64, minSamples int) []float64 {
	n := len(dist)
	if minSamples < 1 {
		minSamples = 1
	}
	if minSamples > n-1 {
		minSamples = n - 1
	}

	out := make([]float64, n)
	row := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if j != i {
				row = append(row, dist[i][j])
			}
		}
		sort.Float64s(row)
		out[i] = row[minSamples-1]
	}
	return out
}

type treeEdge struct {
	a, b   int
	weight float64
}

// spanningTree builds a minimum spanning tree with Prim's algorithm over the
// given symmetric weight function.
func spanningTree(n int, weight func(i, j int) float64) []treeEdge {
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = 1e300
		from[i] = -1
	}

	edges := make([]treeEdge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if w := weight(current, j); w < best[j] {
				best[j] = w
				from[j] = current
			}
		}

		next := -1
		for j := 0; j < n; j++ {
			if !inTree[j] && (next == -1 || best[j] < best[next]) {
				next = j
			}
		}
		if next == -1 {
			break
		}
		inTree[next] = true
		edges = append(edges, treeEdge{a: from[next], b: next, weight: best[next]})
		current = next
	}
	return edges
}

// assignComponentLabels maps union-find components of at least minClusterSize
// members to dense labels 0..k-1 ordered by first member index.
func assignComponentLabels(labels []int, uf *unionFind, minClusterSize int) {
	n := len(labels)
	sizes := make(map[int]int, n)
	for i := 0; i < n; i++ {
		sizes[uf.find(i)]++
	}

	next := 0
	assigned := make(map[int]int, len(sizes))
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if sizes[root] < minClusterSize {
			continue
		}
		label, ok := assigned[root]
		if !ok {
			label = next
			assigned[root] = label
			next++
		}
		labels[i] = label
	}
}

func hasCluster(labels []int) bool {
	for _, l := range labels {
		if l >= 0 {
			return true
		}
	}
	return false
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
