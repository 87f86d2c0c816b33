package unfold

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/decibelcooper/nuxsec/hist"
)

// Bayes is iterative Bayesian unfolding after D'Agostini. The initial
// prior is the truth distribution of the response; each iteration uses
// the previous estimate as the new prior. The fake fraction of each reco
// bin is removed from the measurement and its error first.
//
// With ErrCovariance the derivative of the estimate with respect to the
// measurement is carried through all iterations, so the errors account for
// the prior being built from the data itself.
type Bayes struct {
	Iterations int
	Errors     ErrorMode
}

func (u Bayes) String() string {
	return fmt.Sprintf("bayes(iterations=%d, errors=%v)", u.Iterations, u.Errors)
}

func (u Bayes) Unfold(resp *hist.Response, measured *hbook.H1D) (Result, error) {
	if err := checkInputs(resp, measured); err != nil {
		return Result{}, err
	}
	if u.Iterations < 1 {
		return Result{}, fmt.Errorf("unfold: bayes needs at least one iteration, got %d", u.Iterations)
	}

	var (
		n     = resp.Binning.N
		x     = hist.Contents(measured)
		sigma = hist.Errs(measured)
		truth = hist.Contents(resp.Truth())
	)
	for i, f := range resp.FakeFraction() {
		x[i] *= 1 - f
		sigma[i] *= 1 - f
	}

	total := floats.Sum(truth)
	if total == 0 {
		return Result{}, errors.New("unfold: bayes: response has no entries")
	}

	// theta(i, j) = P(reco bin i | true bin j)
	theta := resp.Matrix()
	theta.Apply(func(i, j int, v float64) float64 {
		if truth[j] == 0 {
			return 0
		}
		return v / truth[j]
	}, theta)

	eff := make([]float64, n)
	for j := range eff {
		eff[j] = mat.Sum(theta.ColView(j))
	}

	prior := make([]float64, n)
	floats.ScaleTo(prior, 1/total, truth)

	var (
		est   = make([]float64, n)
		unf   = mat.NewDense(n, n, nil) // dn_j/dx_i at fixed prior
		deriv = mat.NewDense(n, n, nil) // dn_j/dx_i, full
		dp    *mat.Dense                // dp_l/dx_i of the prior in use
		fold  = make([]float64, n)
	)

	for it := 0; it < u.Iterations; it++ {
		// fold(i) = sum_j theta(i, j) prior(j)
		for i := range fold {
			fold[i] = floats.Dot(theta.RawRowView(i), prior)
		}

		unf.Zero()
		for j := 0; j < n; j++ {
			if eff[j] == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				if fold[i] == 0 {
					continue
				}
				unf.Set(j, i, theta.At(i, j)*prior[j]/(fold[i]*eff[j]))
			}
		}

		for j := range est {
			est[j] = floats.Dot(unf.RawRowView(j), x)
		}

		if u.Errors == ErrCovariance {
			deriv.Copy(unf)
			if dp != nil {
				var chain mat.Dense
				chain.Mul(priorDerivative(theta, eff, fold, prior, x), dp)
				deriv.Add(deriv, &chain)
			}
			dp = normDerivative(deriv, est)
		}

		sum := floats.Sum(est)
		for j := range prior {
			prior[j] = 0
			if sum != 0 {
				prior[j] = est[j] / sum
			}
		}
	}

	res := Result{
		Binning: resp.Binning,
		Content: est,
		Err:     make([]float64, n),
	}
	switch u.Errors {
	case ErrDiagonal:
		res.Cov = propagate(unf, sigma)
		res.Err = diagErrors(res.Cov)
	case ErrCovariance:
		res.Cov = propagate(deriv, sigma)
		res.Err = diagErrors(res.Cov)
	}
	return res, nil
}

// priorDerivative returns dn_j/dp_l for one iteration at fixed data.
func priorDerivative(theta *mat.Dense, eff, fold, prior, x []float64) *mat.Dense {
	n := len(prior)
	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		if eff[j] == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			if fold[i] == 0 {
				continue
			}
			tij := theta.At(i, j)
			if tij == 0 {
				continue
			}
			// dn_j/dp_j from the explicit prior(j) factor
			a.Set(j, j, a.At(j, j)+x[i]*tij/(fold[i]*eff[j]))
			// and from prior(l) in the normalization fold(i)
			c := x[i] * tij * prior[j] / (fold[i] * fold[i] * eff[j])
			for l := 0; l < n; l++ {
				if til := theta.At(i, l); til != 0 {
					a.Set(j, l, a.At(j, l)-c*til)
				}
			}
		}
	}
	return a
}

// normDerivative returns d(n_l / sum n)/dx_i given dn/dx.
func normDerivative(dn *mat.Dense, est []float64) *mat.Dense {
	rows, cols := dn.Dims()
	dp := mat.NewDense(rows, cols, nil)
	sum := floats.Sum(est)
	if sum == 0 {
		return dp
	}
	for i := 0; i < cols; i++ {
		dsum := mat.Sum(dn.ColView(i))
		for l := 0; l < rows; l++ {
			dp.Set(l, i, dn.At(l, i)/sum-est[l]*dsum/(sum*sum))
		}
	}
	return dp
}
