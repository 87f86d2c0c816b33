package nuxsec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/plot"
)

func labelled(ticks []plot.Tick) []string {
	var labels []string
	for _, t := range ticks {
		if t.Label != "" {
			labels = append(labels, t.Label)
		}
	}
	return labels
}

func TestPreciseTicks(t *testing.T) {
	for _, tc := range []struct {
		min, max float64
		want     []string
	}{
		{0, 1500, []string{"0", "300", "600", "900", "1200", "1500"}},
		{0, 1, []string{"0", "0.3", "0.6", "0.9"}},
		{-20, 20, []string{"-20", "-10", "0", "10", "20"}},
	} {
		ticks := PreciseTicks{NSuggestedTicks: 4}.Ticks(tc.min, tc.max)
		assert.Equal(t, tc.want, labelled(ticks), "range [%v, %v]", tc.min, tc.max)
		assert.Greater(t, len(ticks), len(tc.want), "minor ticks in [%v, %v]", tc.min, tc.max)
	}
}

func TestPreciseTicksDegenerate(t *testing.T) {
	ticks := PreciseTicks{}.Ticks(3, 3)
	assert.Equal(t, []plot.Tick{{Value: 3, Label: "3"}}, ticks)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.3, round(0.30000000000000004, 1))
	assert.Equal(t, -0.3, round(-0.30000000000000004, 1))
	assert.Equal(t, 1500.0, round(1500, -2))
	assert.Equal(t, 0.0, round(-0.01, 1))
}
