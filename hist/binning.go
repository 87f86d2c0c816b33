// Package hist builds the weighted energy distributions of the analysis:
// plain 1-D spectra, background-subtracted spectra and the 2-D response
// model used for unfolding. All distributions are go-hep hbook histograms.
package hist

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// ErrBinning is returned when two distributions that must share a
// binning do not.
var ErrBinning = errors.New("hist: binning mismatch")

// Binning is an equal-width binning of [Low, High) into N bins.
type Binning struct {
	N    int     `yaml:"nbins"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

func (b Binning) Validate() error {
	if b.N < 1 {
		return fmt.Errorf("hist: invalid number of bins %d", b.N)
	}
	if !(b.High > b.Low) {
		return fmt.Errorf("hist: invalid range [%g, %g)", b.Low, b.High)
	}
	return nil
}

func (b Binning) Width() float64 {
	return (b.High - b.Low) / float64(b.N)
}

// Edge returns the lower edge of bin i. Edge(N) is High.
func (b Binning) Edge(i int) float64 {
	if i == b.N {
		return b.High
	}
	return b.Low + float64(i)*b.Width()
}

func (b Binning) Center(i int) float64 {
	return 0.5 * (b.Edge(i) + b.Edge(i+1))
}

// edgeTol is the distance, in bins, within which a value is taken to sit
// on a bin edge.
const edgeTol = 1e-9

// Index returns the bin holding x. Bins are half-open, so a value on a
// lower edge belongs to the bin above it, also when the edge is a decimal
// such as 0.3 that has no exact binary form. Values outside [Low, High)
// report false.
func (b Binning) Index(x float64) (int, bool) {
	if math.IsNaN(x) || x < b.Low || x >= b.High {
		return -1, false
	}

	f := float64(b.N) * (x - b.Low) / (b.High - b.Low)
	i := int(math.Floor(f))
	if r := math.Round(f); math.Abs(f-r) < edgeTol {
		i = int(r)
	}
	if i >= b.N {
		i = b.N - 1
	}
	return i, true
}

// Of returns the binning of an hbook histogram.
func Of(h *hbook.H1D) Binning {
	return Binning{N: h.Len(), Low: h.XMin(), High: h.XMax()}
}

// Same reports whether two binnings agree bin edge by bin edge.
func (b Binning) Same(o Binning) bool {
	const tol = 1e-9
	span := math.Abs(b.High - b.Low)
	return b.N == o.N &&
		math.Abs(b.Low-o.Low) <= tol*span &&
		math.Abs(b.High-o.High) <= tol*span
}

// New returns an empty histogram with binning b, annotated with label.
func (b Binning) New(label string) *hbook.H1D {
	h := hbook.NewH1D(b.N, b.Low, b.High)
	Label(h, label)
	return h
}

// Label names h. The name is used for plot titles and output files.
func Label(h *hbook.H1D, label string) {
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = label
	h.Ann["title"] = label
}

// Name returns the label set by Label, if any.
func Name(h *hbook.H1D) string {
	name, _ := h.Ann["name"].(string)
	return name
}

func (b Binning) String() string {
	return fmt.Sprintf("%d bins in [%g, %g)", b.N, b.Low, b.High)
}
