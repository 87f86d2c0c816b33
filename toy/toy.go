// Package toy generates synthetic analysis inputs with a known cross
// section, for closure tests of the extraction.
package toy

import (
	"math"

	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/input"
)

// Model describes the toy experiment. Energies are in MeV, the cross
// section in 1e-38 cm² per target nucleon.
type Model struct {
	Binning hist.Binning

	Exposure float64
	Targets  float64

	// MCFactor is the simulated exposure in units of the data exposure.
	// Simulated events carry a POT factor of 1/MCFactor.
	MCFactor float64

	XSec       func(e float64) float64
	Flux       func(e float64) float64
	Efficiency func(e float64) float64
	Resolution func(e float64) float64
	// Background is the expected background count per reco bin in data.
	Background func(e float64) float64
}

// DefaultModel returns a model on the default analysis binning and
// constants, with a rising cross section and a flux peaked at 500 MeV.
func DefaultModel() Model {
	return Model{
		Binning:  hist.Binning{N: 15, Low: 0, High: 1500},
		Exposure: 2.429524e20,
		Targets:  2.87e31,
		MCFactor: 2,
		XSec: func(e float64) float64 {
			return 1 - math.Exp(-e/300)
		},
		Flux: func(e float64) float64 {
			x := e / 500
			return 4e-10 * x * math.Exp(1-x)
		},
		Efficiency: func(e float64) float64 {
			return 0.3
		},
		Resolution: func(e float64) float64 {
			return 0.08*e + 20
		},
		Background: func(e float64) float64 {
			return 200
		},
	}
}

// Expected returns the expected number of signal interactions, before
// selection, in true bin i of the data sample.
func (m Model) Expected(i int) float64 {
	e := m.Binning.Center(i)
	return 1e-38 * m.XSec(e) * m.Flux(e) * m.Exposure * m.Targets
}

// Generate draws one toy experiment. The returned histograms are keyed
// by the names in names.
func (m Model) Generate(seed uint64, names input.Names) (input.Events, map[string]*hbook.H1D) {
	src := rand.NewSource(seed)
	var (
		evts input.Events
		b    = m.Binning
		pot  = 1 / m.MCFactor
	)

	selected := func(i int, scale float64) float64 {
		return distuv.Poisson{Lambda: scale * m.Expected(i) * m.Efficiency(b.Center(i)), Src: src}.Rand()
	}
	uniform := func(i int) float64 {
		return distuv.Uniform{Min: b.Edge(i), Max: b.Edge(i + 1), Src: src}.Rand()
	}
	smear := func(e float64) float64 {
		return distuv.Normal{Mu: e, Sigma: m.Resolution(e), Src: src}.Rand()
	}

	for i := 0; i < b.N; i++ {
		for n := selected(i, m.MCFactor); n > 0; n-- {
			e := uniform(i)
			evts.SignalTrue.Energy = append(evts.SignalTrue.Energy, e)
			evts.SignalTrue.Weight = append(evts.SignalTrue.Weight, 1)
			evts.SignalTrue.POT = append(evts.SignalTrue.POT, pot)
			evts.SignalReco.Energy = append(evts.SignalReco.Energy, smear(e))
			evts.SignalReco.Weight = append(evts.SignalReco.Weight, 1)
			evts.SignalReco.POT = append(evts.SignalReco.POT, pot)
		}

		for n := selected(i, 1); n > 0; n-- {
			evts.Data.Energy = append(evts.Data.Energy, smear(uniform(i)))
			evts.Data.POT = append(evts.Data.POT, 1)
		}

		bkg := m.Background(b.Center(i))
		for n := (distuv.Poisson{Lambda: bkg * m.MCFactor, Src: src}).Rand(); n > 0; n-- {
			evts.Background.Energy = append(evts.Background.Energy, uniform(i))
			evts.Background.Weight = append(evts.Background.Weight, 1)
			evts.Background.POT = append(evts.Background.POT, pot)
		}
		for n := (distuv.Poisson{Lambda: bkg, Src: src}).Rand(); n > 0; n-- {
			evts.Data.Energy = append(evts.Data.Energy, uniform(i))
			evts.Data.POT = append(evts.Data.POT, 1)
		}
	}

	flux := b.New(names.Flux)
	eff := b.New(names.Efficiency)
	for i := 0; i < b.N; i++ {
		e := b.Center(i)
		hist.SetBin(flux, i, m.Flux(e), 0)
		hist.SetBin(eff, i, m.Efficiency(e), 0)
	}

	// predictions in 1e-38 cm² per argon on a GeV axis
	const nucleons = 22
	gev := hist.Binning{N: b.N, Low: b.Low * 1e-3, High: b.High * 1e-3}
	cv := gev.New(names.PredictionCV)
	low := gev.New(names.PredictionLow)
	high := gev.New(names.PredictionHigh)
	for i := 0; i < b.N; i++ {
		v := nucleons * m.XSec(b.Center(i))
		hist.SetBin(cv, i, v, 0)
		hist.SetBin(low, i, 0.85*v, 0)
		hist.SetBin(high, i, 1.15*v, 0)
	}

	return evts, map[string]*hbook.H1D{
		names.Flux:           flux,
		names.Efficiency:     eff,
		names.PredictionCV:   cv,
		names.PredictionLow:  low,
		names.PredictionHigh: high,
	}
}
