package hist

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Fill adds w to the bin of h holding x. Values outside the binning are
// dropped and Fill reports false; nothing goes to hbook's outflow bins.
func Fill(h *hbook.H1D, x, w float64) bool {
	b := Of(h)
	i, ok := b.Index(x)
	if !ok {
		return false
	}
	h.Fill(b.Center(i), w)
	return true
}

// Build fills a histogram with one entry per event, weighted by
// weight×pot. A nil weight or pot slice stands for 1 on every event.
func Build(label string, b Binning, energy, weight, pot []float64) (*hbook.H1D, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if weight != nil && len(weight) != len(energy) {
		return nil, fmt.Errorf("hist: %s: %d weights for %d energies", label, len(weight), len(energy))
	}
	if pot != nil && len(pot) != len(energy) {
		return nil, fmt.Errorf("hist: %s: %d POT factors for %d energies", label, len(pot), len(energy))
	}

	h := b.New(label)
	for i, e := range energy {
		w := 1.0
		if weight != nil {
			w *= weight[i]
		}
		if pot != nil {
			w *= pot[i]
		}
		Fill(h, e, w)
	}
	return h, nil
}

// Subtract returns a-b bin by bin. Negative contents are kept as is.
// Errors add in quadrature.
func Subtract(label string, a, b *hbook.H1D) (*hbook.H1D, error) {
	ba := Of(a)
	if !ba.Same(Of(b)) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrBinning, ba, Of(b))
	}

	h := ba.New(label)
	for i := 0; i < ba.N; i++ {
		ea, eb := Err(a, i), Err(b, i)
		SetBin(h, i, Content(a, i)-Content(b, i), math.Sqrt(ea*ea+eb*eb))
	}
	return h, nil
}

// Content returns the sum of weights in bin i.
func Content(h *hbook.H1D, i int) float64 {
	return h.Binning.Bins[i].SumW()
}

// Err returns the error on the content of bin i, sqrt(sum of w²).
func Err(h *hbook.H1D, i int) float64 {
	return math.Sqrt(h.Binning.Bins[i].SumW2())
}

// Contents returns all bin contents in order.
func Contents(h *hbook.H1D) []float64 {
	v := make([]float64, h.Len())
	for i := range v {
		v[i] = Content(h, i)
	}
	return v
}

// Errs returns all bin errors in order.
func Errs(h *hbook.H1D) []float64 {
	v := make([]float64, h.Len())
	for i := range v {
		v[i] = Err(h, i)
	}
	return v
}

// SetBin overwrites bin i so that it holds content with the given error.
// The histogram totals are kept consistent with the new bin.
func SetBin(h *hbook.H1D, i int, content, err float64) {
	bin := &h.Binning.Bins[i]
	x := bin.XMid()

	old := bin.Dist
	total := &h.Binning.Dist
	total.Dist.N -= old.Dist.N
	total.Dist.SumW -= old.Dist.SumW
	total.Dist.SumW2 -= old.Dist.SumW2
	total.Stats.SumWX -= old.Stats.SumWX
	total.Stats.SumWX2 -= old.Stats.SumWX2

	d := &bin.Dist
	d.Dist.N = 1
	d.Dist.SumW = content
	d.Dist.SumW2 = err * err
	d.Stats.SumWX = content * x
	d.Stats.SumWX2 = content * x * x

	total.Dist.N += d.Dist.N
	total.Dist.SumW += d.Dist.SumW
	total.Dist.SumW2 += d.Dist.SumW2
	total.Stats.SumWX += d.Stats.SumWX
	total.Stats.SumWX2 += d.Stats.SumWX2
}

// FromValues builds a histogram from contents and errors. errs may be nil.
func FromValues(label string, b Binning, contents, errs []float64) (*hbook.H1D, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(contents) != b.N || (errs != nil && len(errs) != b.N) {
		return nil, fmt.Errorf("%w: %d values for %v", ErrBinning, len(contents), b)
	}

	h := b.New(label)
	for i, c := range contents {
		e := 0.0
		if errs != nil {
			e = errs[i]
		}
		SetBin(h, i, c, e)
	}
	return h, nil
}
