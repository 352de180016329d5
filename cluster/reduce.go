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
	"math"
	"math/rand"
	"sort"
)

const (
	// reductionSeed makes the eigenvector initialization, and therefore the
	// whole reduction, reproducible across runs.
	reductionSeed = 42

	maxNeighbors = 15
	maxReducedDims = 5

	// minPointsForReduction is the smallest dataset worth reducing; below it
	// clustering runs directly in the hybrid space.
	minPointsForReduction = 4

	powerIterations  = 200
	powerConvergence = 1e-9
)

// reduceEmbeddings projects the rows into a low-dimensional space that
// preserves local neighborhoods: a k-nearest-neighbor affinity graph with
// locally scaled Gaussian weights, embedded via the leading eigenvectors of
// the normalized adjacency (Laplacian eigenmaps). Eigenvectors are found by
// seeded power iteration with deflation, so the output is deterministic.
//
// Datasets smaller than minPointsForReduction are returned unchanged.
func reduceEmbeddings(rows [][]float64) [][]float64 {
	n := len(rows)
	if n < minPointsForReduction {
		return rows
	}

	neighbors := maxNeighbors
	if n-1 < neighbors {
		neighbors = n - 1
	}
	dims := maxReducedDims
	if n-2 < dims {
		dims = n - 2
	}

	dist := pairwiseDistances(rows)

	// Local scale per point: distance to its k-th nearest neighbor. Keeps the
	// kernel bandwidth adaptive in regions of varying density.
	scale := make([]float64, n)
	order := make([][]int, n)
	for i := 0; i < n; i++ {
		idx := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				idx = append(idx, j)
			}
		}
		sort.Slice(idx, func(a, b int) bool {
			if dist[i][idx[a]] != dist[i][idx[b]] {
				return dist[i][idx[a]] < dist[i][idx[b]]
			}
			return idx[a] < idx[b]
		})
		order[i] = idx
		scale[i] = dist[i][idx[neighbors-1]]
		if scale[i] == 0 {
			scale[i] = 1e-10
		}
	}

	// Symmetric kNN affinity matrix with self-tuned Gaussian weights.
	weight := make([][]float64, n)
	for i := range weight {
		weight[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for _, j := range order[i][:neighbors] {
			w := math.Exp(-dist[i][j] * dist[i][j] / (scale[i] * scale[j]))
			if w > weight[i][j] {
				weight[i][j] = w
				weight[j][i] = w
			}
		}
	}

	degree := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			degree[i] += weight[i][j]
		}
		if degree[i] == 0 {
			degree[i] = 1e-10
		}
	}

	// Normalized adjacency M = D^-1/2 W D^-1/2. Its top eigenvector is the
	// trivial D^1/2 * 1; the next `dims` eigenvectors carry the embedding.
	invSqrtDeg := make([]float64, n)
	for i, d := range degree {
		invSqrtDeg[i] = 1 / math.Sqrt(d)
	}
	mulM := func(v []float64) []float64 {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				if weight[i][j] != 0 {
					sum += invSqrtDeg[i] * weight[i][j] * invSqrtDeg[j] * v[j]
				}
			}
			out[i] = sum
		}
		return out
	}

	trivial := make([]float64, n)
	for i := range trivial {
		trivial[i] = math.Sqrt(degree[i])
	}
	normalizeRow(trivial)

	basis := [][]float64{trivial}
	rng := rand.New(rand.NewSource(reductionSeed))

	vectors := make([][]float64, 0, dims)
	for k := 0; k < dims; k++ {
		v := make([]float64, n)
		for i := range v {
			v[i] = rng.Float64() - 0.5
		}
		orthogonalize(v, basis)
		normalizeRow(v)

		prev := math.Inf(1)
		for iter := 0; iter < powerIterations; iter++ {
			v = mulM(v)
			orthogonalize(v, basis)
			norm := l2Norm(v)
			if norm == 0 {
				break
			}
			for i := range v {
				v[i] /= norm
			}
			if math.Abs(norm-prev) < powerConvergence {
				break
			}
			prev = norm
		}

		basis = append(basis, v)
		vectors = append(vectors, v)
	}

	// Laplacian eigenmap coordinates: u = D^-1/2 v per component.
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, dims)
		for k := 0; k < dims; k++ {
			out[i][k] = vectors[k][i] * invSqrtDeg[i]
		}
	}
	return out
}

// orthogonalize removes from v its projection onto each basis vector.
func orthogonalize(v []float64, basis [][]float64) {
	for _, b := range basis {
		var dot float64
		for i := range v {
			dot += v[i] * b[i]
		}
		for i := range v {
			v[i] -= dot * b[i]
		}
	}
}
