// Package xsec turns an unfolded signal spectrum into a flux-averaged
// cross section per target nucleus.
package xsec

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
	"go.uber.org/zap"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/unfold"
)

// Normalizer divides unfolded event counts by flux, exposure, efficiency
// and target count:
//
//	σ_i = Multiplicity × Scale × n_i / (Targets × Φ_i × Exposure × ε_i)
//
// Bins with a zero denominator are set to zero with zero error.
type Normalizer struct {
	// Binning of the output. The first Binning.N bins of the unfolded
	// spectrum, flux and efficiency are used.
	Binning hist.Binning

	Exposure     float64 // POT of the data sample
	Targets      float64 // target nucleons in the fiducial volume
	Multiplicity float64 // target nucleons per nucleus
	Scale        float64 // display scale, 1e38 to plot in 1e-38 cm²

	Logger *zap.Logger
}

func (n Normalizer) Normalize(label string, unfolded unfold.Result, flux, eff *hbook.H1D) (*hbook.H1D, error) {
	if err := n.Binning.Validate(); err != nil {
		return nil, err
	}
	nbins := n.Binning.N
	switch {
	case len(unfolded.Content) < nbins || len(unfolded.Err) < nbins:
		return nil, fmt.Errorf("%w: unfolded spectrum has %d bins, need %d", hist.ErrBinning, len(unfolded.Content), nbins)
	case flux.Len() < nbins:
		return nil, fmt.Errorf("%w: flux has %d bins, need %d", hist.ErrBinning, flux.Len(), nbins)
	case eff.Len() < nbins:
		return nil, fmt.Errorf("%w: efficiency has %d bins, need %d", hist.ErrBinning, eff.Len(), nbins)
	}

	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := n.Binning.New(label)
	for i := 0; i < nbins; i++ {
		phi := hist.Content(flux, i)
		epsilon := hist.Content(eff, i)
		logger.Debug("normalizing bin",
			zap.Int("bin", i),
			zap.Float64("unfolded", unfolded.Content[i]),
			zap.Float64("error", unfolded.Err[i]),
			zap.Float64("flux", phi),
			zap.Float64("efficiency", epsilon),
		)

		c, e := n.Bin(unfolded.Content[i], unfolded.Err[i], phi, epsilon)
		hist.SetBin(h, i, c, e)
	}
	return h, nil
}

// Bin normalizes one bin.
func (n Normalizer) Bin(content, err, flux, eff float64) (float64, float64) {
	den := n.Targets * flux * n.Exposure * eff
	if den == 0 {
		return 0, 0
	}
	k := n.Multiplicity * n.Scale / den
	return k * content, k * err
}

// Rescale copies h into a histogram whose axis is multiplied by factor,
// bin for bin. It is used to draw MeV results on a GeV axis.
func Rescale(label string, h *hbook.H1D, factor float64) (*hbook.H1D, error) {
	if !(factor > 0) {
		return nil, fmt.Errorf("xsec: invalid axis factor %g", factor)
	}
	b := hist.Of(h)
	scaled := hist.Binning{N: b.N, Low: b.Low * factor, High: b.High * factor}
	return hist.FromValues(label, scaled, hist.Contents(h), hist.Errs(h))
}
