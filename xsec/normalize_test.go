package xsec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/unfold"
)

func values(t *testing.T, b hist.Binning, v ...float64) *hbook.H1D {
	t.Helper()
	h, err := hist.FromValues("v", b, v, nil)
	require.NoError(t, err)
	return h
}

func TestBinScenario(t *testing.T) {
	n := Normalizer{Exposure: 1, Targets: 1, Multiplicity: 1, Scale: 1}
	c, e := n.Bin(4, 2, 2, 0.5)
	assert.Equal(t, 4.0, c)
	assert.Equal(t, 2.0, e)
}

func TestBinZeroDenominator(t *testing.T) {
	n := Normalizer{Exposure: 2.429524e20, Targets: 2.87e31, Multiplicity: 22, Scale: 1e38}
	for _, tc := range []struct{ flux, eff float64 }{
		{0, 0.3},
		{1e-10, 0},
		{0, 0},
	} {
		c, e := n.Bin(1234, 56, tc.flux, tc.eff)
		assert.Equal(t, 0.0, c)
		assert.Equal(t, 0.0, e)
		assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
	}
}

func TestNormalize(t *testing.T) {
	full := hist.Binning{N: 4, Low: 0, High: 400}
	n := Normalizer{
		Binning:      hist.Binning{N: 3, Low: 0, High: 300},
		Exposure:     10,
		Targets:      2,
		Multiplicity: 22,
		Scale:        1e38,
	}
	unfolded := unfold.Result{
		Binning: full,
		Content: []float64{100, -40, 50, 999},
		Err:     []float64{10, 8, 7, 1},
	}
	flux := values(t, full, 1e-38, 2e-38, 0, 1)
	eff := values(t, full, 0.5, 0.25, 0.5, 1)

	h, err := n.Normalize("CrossSection_Bayes_h", unfolded, flux, eff)
	require.NoError(t, err)
	require.Equal(t, 3, h.Len())
	assert.Equal(t, "CrossSection_Bayes_h", hist.Name(h))

	// den = 2 × 1e-38 × 10 × 0.5 = 1e-37
	assert.InEpsilon(t, 2.2e78, hist.Content(h, 0), 1e-9)
	assert.InEpsilon(t, 2.2e77, hist.Err(h, 0), 1e-9)
	// negative numerators stay negative
	assert.Less(t, hist.Content(h, 1), 0.0)
	// zero flux
	assert.Equal(t, 0.0, hist.Content(h, 2))
	assert.Equal(t, 0.0, hist.Err(h, 2))
}

func TestNormalizeTooFewBins(t *testing.T) {
	b := hist.Binning{N: 10, Low: 0, High: 1000}
	n := Normalizer{Binning: b, Exposure: 1, Targets: 1, Multiplicity: 1, Scale: 1}
	short := hist.Binning{N: 5, Low: 0, High: 500}
	res := unfold.Result{Binning: short, Content: make([]float64, 5), Err: make([]float64, 5)}
	_, err := n.Normalize("x", res, values(t, short, 1, 1, 1, 1, 1), values(t, short, 1, 1, 1, 1, 1))
	assert.ErrorIs(t, err, hist.ErrBinning)
}

func TestRescale(t *testing.T) {
	b := hist.Binning{N: 10, Low: 0, High: 1000}
	h := values(t, b, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	hist.SetBin(h, 3, 4, 0.5)

	g, err := Rescale("XSEC_Overlay_Bayes_h", h, 1e-3)
	require.NoError(t, err)
	assert.InDelta(t, 0, g.XMin(), 1e-12)
	assert.InDelta(t, 1, g.XMax(), 1e-12)
	assert.Equal(t, hist.Contents(h), hist.Contents(g))
	assert.InDelta(t, 0.5, hist.Err(g, 3), 1e-12)

	_, err = Rescale("bad", h, 0)
	assert.Error(t, err)
}
