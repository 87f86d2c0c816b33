// Package input reads the event samples and calibration histograms of the
// analysis from a data source, by default a ROOT file.
package input

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
)

// Sample holds per-event parallel vectors. Weight is nil for samples
// without tune weights, such as data.
type Sample struct {
	Energy []float64
	Weight []float64
	POT    []float64
}

func (s Sample) Len() int { return len(s.Energy) }

func (s Sample) check(name string) error {
	if s.Weight != nil && len(s.Weight) != len(s.Energy) {
		return fmt.Errorf("input: %s: %d weights for %d energies", name, len(s.Weight), len(s.Energy))
	}
	if s.POT != nil && len(s.POT) != len(s.Energy) {
		return fmt.Errorf("input: %s: %d POT factors for %d energies", name, len(s.POT), len(s.Energy))
	}
	return nil
}

// Events holds every event sample of the analysis.
type Events struct {
	Background Sample
	SignalTrue Sample
	SignalReco Sample
	Data       Sample
}

// Check verifies that the parallel vectors of each sample agree, and that
// the true and reco signal samples describe the same events.
func (e Events) Check() error {
	for _, s := range []struct {
		name string
		s    Sample
	}{
		{"background", e.Background},
		{"signal true", e.SignalTrue},
		{"signal reco", e.SignalReco},
		{"data", e.Data},
	} {
		if err := s.s.check(s.name); err != nil {
			return err
		}
	}
	if e.SignalTrue.Len() != e.SignalReco.Len() {
		return fmt.Errorf("input: %d true signal events for %d reco signal events", e.SignalTrue.Len(), e.SignalReco.Len())
	}
	return nil
}

// Source provides the analysis inputs.
type Source interface {
	Events() (Events, error)
	H1D(name string) (*hbook.H1D, error)
}

// Names maps analysis quantities to object names in the input file.
type Names struct {
	Tree string `yaml:"tree"`

	BackgroundEnergy  string `yaml:"background_energy"`
	BackgroundWeights string `yaml:"background_weights"`
	BackgroundPOT     string `yaml:"background_pot"`

	TrueEnergy  string `yaml:"true_energy"`
	TrueWeights string `yaml:"true_weights"`
	TruePOT     string `yaml:"true_pot"`

	RecoEnergy  string `yaml:"reco_energy"`
	RecoWeights string `yaml:"reco_weights"`
	RecoPOT     string `yaml:"reco_pot"`

	DataEnergy string `yaml:"data_energy"`
	DataPOT    string `yaml:"data_pot"`

	Flux       string `yaml:"flux"`
	Efficiency string `yaml:"efficiency"`

	PredictionCV   string `yaml:"prediction_cv"`
	PredictionLow  string `yaml:"prediction_low"`
	PredictionHigh string `yaml:"prediction_high"`
}

// DefaultNames returns the names used by the MicroBooNE tutorial input
// file.
func DefaultNames() Names {
	return Names{
		Tree: "EventTree",

		BackgroundEnergy:  "BackgroundEvents_Energy",
		BackgroundWeights: "BackgroundEvents_Weights",
		BackgroundPOT:     "BackgroundEvents_POT",

		TrueEnergy:  "BnBCCQE_True_Energy",
		TrueWeights: "BnBCCQE_True_Weights",
		TruePOT:     "BnBCCQE_True_POT",

		RecoEnergy:  "BnBCCQE_Reco_Energy",
		RecoWeights: "BnBCCQE_Reco_Weights",
		RecoPOT:     "BnBCCQE_Reco_POT",

		DataEnergy: "DataEvents_Energy",
		DataPOT:    "DataEvents_POT",

		Flux:       "Neutrino_flux",
		Efficiency: "Run3_NuMu_CCQE_Selection_Efficiency",

		PredictionCV:   "numu_ccqe_xsec_mcc9_tuned_cv",
		PredictionLow:  "numu_ccqe_xsec_mcc9_genie_all_low",
		PredictionHigh: "numu_ccqe_xsec_mcc9_genie_all_high;1",
	}
}

// Memory is a Source backed by values in memory.
type Memory struct {
	Samples Events
	Hists   map[string]*hbook.H1D
}

func (m *Memory) Events() (Events, error) {
	return m.Samples, m.Samples.Check()
}

func (m *Memory) H1D(name string) (*hbook.H1D, error) {
	h, ok := m.Hists[name]
	if !ok {
		return nil, fmt.Errorf("input: no histogram %q", name)
	}
	return h, nil
}
