package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectParams(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 3},
		{30, 3},
		{49, 3},
		{50, 5},
		{150, 5},
		{199, 5},
		{200, 7},
		{500, 7},
	}

	for _, tt := range tests {
		p := SelectParams(tt.n)
		assert.Equal(t, tt.want, p.MinClusterSize, "n=%d", tt.n)
		assert.Equal(t, 2, p.MinSamples, "n=%d", tt.n)
		assert.Equal(t, StrategyExcessOfMass, p.SelectionStrategy, "n=%d", tt.n)
		assert.Equal(t, MetricEuclidean, p.Metric, "n=%d", tt.n)
	}
}

func TestSelectParamsPure(t *testing.T) {
	// Repeated calls with the same n are identical
	for _, n := range []int{10, 100, 1000} {
		assert.Equal(t, SelectParams(n), SelectParams(n))
	}
}

func TestParamsWithDefaults(t *testing.T) {
	t.Run("zero fields filled", func(t *testing.T) {
		p := Params{}.withDefaults(150)
		assert.Equal(t, 5, p.MinClusterSize)
		assert.Equal(t, 2, p.MinSamples)
		assert.Equal(t, StrategyExcessOfMass, p.SelectionStrategy)
	})

	t.Run("explicit values win", func(t *testing.T) {
		p := Params{MinClusterSize: 12, MinSamples: 4}.withDefaults(150)
		assert.Equal(t, 12, p.MinClusterSize)
		assert.Equal(t, 4, p.MinSamples)
		assert.Equal(t, MetricEuclidean, p.Metric)
	})
}
