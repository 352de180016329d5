package cluster

import (
	"sort"

	"github.com/poiesic/thematic/core"
)

// rescuePercentile selects which noise points are relevant enough to be
// worth pulling back into a cluster.
const rescuePercentile = 60

// rescueNoise reassigns high-relevance noise points to their nearest cluster
// when they sit within that cluster's typical internal spread (mean plus one
// standard deviation of pairwise member distances, in the hybrid space).
//
// The pass is deliberately single-shot: cluster memberships and distance
// statistics are snapshotted before any reassignment, so an early rescue
// cannot pull later candidates toward a cluster it just grew. Returns the
// number of rescued points.
func rescueNoise(labels []int, hybrid [][]float64, relevance []float64) int {
	positive := make([]float64, 0, len(relevance))
	for _, r := range relevance {
		if r > 0 {
			positive = append(positive, r)
		}
	}
	if len(positive) == 0 {
		return 0
	}
	threshold := percentile(positive, rescuePercentile)

	members := make(map[int][]int)
	for i, label := range labels {
		if label >= 0 {
			members[label] = append(members[label], i)
		}
	}
	if len(members) == 0 {
		return 0
	}

	// Pre-rescue acceptance bound per cluster. Clusters with a single member
	// have no internal distances and never accept rescues.
	bounds := make(map[int]float64, len(members))
	for label, idx := range members {
		var internal []float64
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				internal = append(internal, euclidean(hybrid[idx[a]], hybrid[idx[b]]))
			}
		}
		if len(internal) > 0 {
			bounds[label] = meanFloat(internal) + stdFloat(internal)
		}
	}

	order := make([]int, 0, len(members))
	for label := range members {
		order = append(order, label)
	}
	sort.Ints(order)

	rescued := 0
	for i, label := range labels {
		if label != core.NoiseLabel || relevance[i] <= threshold {
			continue
		}

		best := core.NoiseLabel
		bestDist := 1e300
		for _, clusterLabel := range order {
			idx := members[clusterLabel]
			var sum float64
			for _, j := range idx {
				sum += euclidean(hybrid[i], hybrid[j])
			}
			avg := sum / float64(len(idx))
			if avg < bestDist {
				bestDist = avg
				best = clusterLabel
			}
		}

		bound, ok := bounds[best]
		if ok && bestDist <= bound {
			labels[i] = best
			rescued++
		}
	}
	return rescued
}
