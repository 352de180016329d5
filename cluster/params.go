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

// Selection strategies for the density pass.
const (
	StrategyExcessOfMass = "excess-of-mass"
)

// MetricEuclidean is the only distance metric the density pass supports.
const MetricEuclidean = "euclidean"

// Params holds density-clustering parameters. Zero-valued fields are filled
// from SelectParams when passed to Clusterer.Cluster.
type Params struct {
	MinClusterSize    int
	MinSamples        int
	SelectionStrategy string
	Metric            string
}

// SelectParams derives clustering parameters from dataset size. The
// thresholds keep cluster counts in the handful-of-meaningful-themes band
// whether the corpus is thirty chunks or a few thousand. Pure function of n.
func SelectParams(n int) Params {
	minClusterSize := 3
	switch {
	case n >= 200:
		minClusterSize = 7
	case n >= 50:
		minClusterSize = 5
	}

	return Params{
		MinClusterSize:    minClusterSize,
		MinSamples:        2,
		SelectionStrategy: StrategyExcessOfMass,
		Metric:            MetricEuclidean,
	}
}

// withDefaults fills any zero-valued field from SelectParams(n). Explicit
// caller-supplied values always win.
func (p Params) withDefaults(n int) Params {
	auto := SelectParams(n)
	if p.MinClusterSize == 0 {
		p.MinClusterSize = auto.MinClusterSize
	}
	if p.MinSamples == 0 {
		p.MinSamples = auto.MinSamples
	}
	if p.SelectionStrategy == "" {
		p.SelectionStrategy = auto.SelectionStrategy
	}
	if p.Metric == "" {
		p.Metric = auto.Metric
	}
	return p
}
