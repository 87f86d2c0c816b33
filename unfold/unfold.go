// Package unfold undoes detector smearing: given a response model and a
// measured reconstructed-energy distribution it estimates the true-energy
// distribution with its uncertainty.
package unfold

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/mat"

	"github.com/decibelcooper/nuxsec/hist"
)

// ErrUnknownMethod is returned by Lookup for a method with no
// implementation.
var ErrUnknownMethod = errors.New("unfold: unknown method")

// ErrorMode selects how measurement errors are propagated to the
// unfolded distribution. The numbering matches the usual RooUnfold
// selector.
type ErrorMode int

const (
	// ErrNone reports zero errors.
	ErrNone ErrorMode = iota
	// ErrDiagonal propagates through the final unfolding matrix only.
	ErrDiagonal
	// ErrCovariance propagates the full covariance through every
	// iteration, including the dependence of the prior on the data.
	ErrCovariance
)

func (m ErrorMode) String() string {
	switch m {
	case ErrNone:
		return "none"
	case ErrDiagonal:
		return "diagonal"
	case ErrCovariance:
		return "covariance"
	}
	return fmt.Sprintf("ErrorMode(%d)", int(m))
}

// Result is an unfolded true-energy distribution.
type Result struct {
	Binning hist.Binning
	Content []float64
	Err     []float64

	// Cov is the covariance of Content. It is nil when the unfolder does
	// not compute one.
	Cov *mat.SymDense
}

// H1D returns the result as a labeled histogram.
func (r Result) H1D(label string) (*hbook.H1D, error) {
	return hist.FromValues(label, r.Binning, r.Content, r.Err)
}

// Unfolder estimates a true distribution from a measured one.
type Unfolder interface {
	Unfold(resp *hist.Response, measured *hbook.H1D) (Result, error)
}

// Lookup returns the unfolder registered under name, configured with the
// given iteration count and error mode where it applies.
func Lookup(name string, iterations int, errs ErrorMode) (Unfolder, error) {
	switch name {
	case "bayes":
		return Bayes{Iterations: iterations, Errors: errs}, nil
	case "binbybin":
		return BinByBin{Errors: errs}, nil
	}
	return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownMethod, name, Methods())
}

// Methods lists the names accepted by Lookup.
func Methods() []string {
	return []string{"bayes", "binbybin"}
}

func checkInputs(resp *hist.Response, measured *hbook.H1D) error {
	if resp == nil {
		return errors.New("unfold: nil response")
	}
	if measured == nil {
		return errors.New("unfold: nil measured distribution")
	}
	if b := hist.Of(measured); !b.Same(resp.Binning) {
		return fmt.Errorf("%w: measured %v, response %v", hist.ErrBinning, b, resp.Binning)
	}
	return nil
}

// propagate returns D·diag(σ²)·Dᵀ.
func propagate(d *mat.Dense, sigma []float64) *mat.SymDense {
	n, k := d.Dims()
	scaled := mat.NewDense(n, k, nil)
	scaled.Apply(func(i, j int, v float64) float64 {
		return v * sigma[j] * sigma[j]
	}, d)

	var full mat.Dense
	full.Mul(scaled, d.T())

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, 0.5*(full.At(i, j)+full.At(j, i)))
		}
	}
	return cov
}

func diagErrors(cov *mat.SymDense) []float64 {
	n := cov.SymmetricDim()
	errs := make([]float64, n)
	for i := range errs {
		if v := cov.At(i, i); v > 0 {
			errs[i] = math.Sqrt(v)
		}
	}
	return errs
}
