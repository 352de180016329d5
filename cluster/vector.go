package cluster

import (
	"math"
	"sort"
)

// toFloat64 widens an embedding to float64 for the numeric pipeline.
func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// normalizeRow scales v to unit length in place. Zero vectors are left as-is.
func normalizeRow(v []float64) {
	norm := l2Norm(v)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] /= norm
	}
}

func normalizeRows(rows [][]float64) {
	for _, row := range rows {
		normalizeRow(row)
	}
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// meanRow averages a set of equal-length vectors.
func meanRow(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	for _, row := range rows {
		for i, x := range row {
			out[i] += x
		}
	}
	for i := range out {
		out[i] /= float64(len(rows))
	}
	return out
}

func meanFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdFloat computes the population standard deviation.
func stdFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := meanFloat(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// percentile computes the p-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// pairwiseDistances returns the full symmetric distance matrix.
func pairwiseDistances(rows [][]float64) [][]float64 {
	n := len(rows)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(rows[i], rows[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}
