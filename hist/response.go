package hist

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/mat"
)

// Response is the detector smearing model: the joint distribution of
// reconstructed (x) and true (y) energy for selected signal events.
//
// Events whose true energy is in range but whose reconstructed energy is
// not are misses: they count in the truth marginal only and lower the
// efficiency of their true bin. Events reconstructed in range from a true
// energy out of range are fakes: they count in the reco marginal and in
// Fakes only, and are removed from the measurement before unfolding.
type Response struct {
	Binning Binning

	joint *hbook.H2D
	truth *hbook.H1D
	reco  *hbook.H1D
	fakes *hbook.H1D
	fills int
}

// NewResponse returns an empty response with the same binning on the
// reconstructed and true axes.
func NewResponse(b Binning) (*Response, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Response{
		Binning: b,
		joint:   hbook.NewH2D(b.N, b.Low, b.High, b.N, b.Low, b.High),
		truth:   b.New("Response_Truth"),
		reco:    b.New("Response_Reco"),
		fakes:   b.New("Response_Fakes"),
	}, nil
}

// Fill adds one event with the given weight. Events with both energies
// out of range are dropped.
func (r *Response) Fill(reco, truth, w float64) {
	ir, recoOK := r.Binning.Index(reco)
	it, truthOK := r.Binning.Index(truth)

	switch {
	case truthOK:
		r.fills++
		r.truth.Fill(r.Binning.Center(it), w)
		if recoOK {
			r.reco.Fill(r.Binning.Center(ir), w)
			r.joint.Fill(r.Binning.Center(ir), r.Binning.Center(it), w)
		}
	case recoOK:
		r.reco.Fill(r.Binning.Center(ir), w)
		r.fakes.Fill(r.Binning.Center(ir), w)
	}
}

// BuildResponse fills a response from parallel reco, true and weight
// slices. A nil weight slice stands for 1 on every event.
func BuildResponse(b Binning, reco, truth, weight []float64) (*Response, error) {
	if len(reco) != len(truth) {
		return nil, fmt.Errorf("hist: response: %d reco energies for %d true energies", len(reco), len(truth))
	}
	if weight != nil && len(weight) != len(reco) {
		return nil, fmt.Errorf("hist: response: %d weights for %d events", len(weight), len(reco))
	}

	r, err := NewResponse(b)
	if err != nil {
		return nil, err
	}
	for i := range reco {
		w := 1.0
		if weight != nil {
			w = weight[i]
		}
		r.Fill(reco[i], truth[i], w)
	}
	return r, nil
}

// Matrix returns the joint contents with reco bins as rows and true bins
// as columns.
func (r *Response) Matrix() *mat.Dense {
	n := r.Binning.N
	m := mat.NewDense(n, n, nil)
	grid := r.joint.GridXYZ()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, grid.Z(i, j))
		}
	}
	return m
}

// Truth returns the true energy distribution of all filled events,
// including misses.
func (r *Response) Truth() *hbook.H1D { return r.truth }

// Reco returns the reconstructed energy distribution of all filled
// events: the joint distribution summed over true energy, plus fakes.
func (r *Response) Reco() *hbook.H1D { return r.reco }

// Fakes returns the reconstructed energy distribution of events with a
// true energy out of range.
func (r *Response) Fakes() *hbook.H1D { return r.fakes }

// FakeFraction returns the fraction of the reco content of each bin that
// comes from fakes.
func (r *Response) FakeFraction() []float64 {
	frac := make([]float64, r.Binning.N)
	for i := range frac {
		if reco := Content(r.reco, i); reco != 0 {
			frac[i] = Content(r.fakes, i) / reco
		}
	}
	return frac
}

// Entries returns the number of events with a true energy in range.
func (r *Response) Entries() int { return r.fills }
