package unfold

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/mat"

	"github.com/decibelcooper/nuxsec/hist"
)

// BinByBin corrects each measured bin by the truth/reco ratio of the
// response in that bin. It ignores migrations between bins. The reco
// content includes fakes, so the factor also removes the fake fraction.
type BinByBin struct {
	Errors ErrorMode
}

func (u BinByBin) String() string {
	return fmt.Sprintf("binbybin(errors=%v)", u.Errors)
}

func (u BinByBin) Unfold(resp *hist.Response, measured *hbook.H1D) (Result, error) {
	if err := checkInputs(resp, measured); err != nil {
		return Result{}, err
	}

	n := resp.Binning.N
	res := Result{
		Binning: resp.Binning,
		Content: make([]float64, n),
		Err:     make([]float64, n),
	}

	factor := make([]float64, n)
	for j := range factor {
		reco := hist.Content(resp.Reco(), j)
		if reco == 0 {
			continue
		}
		factor[j] = hist.Content(resp.Truth(), j) / reco
		res.Content[j] = factor[j] * hist.Content(measured, j)
	}

	if u.Errors == ErrNone {
		return res, nil
	}

	res.Cov = mat.NewSymDense(n, nil)
	for j := range factor {
		e := math.Abs(factor[j] * hist.Err(measured, j))
		res.Err[j] = e
		res.Cov.SetSym(j, j, e*e)
	}
	return res, nil
}
