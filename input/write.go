package input

import (
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
)

// WriteFile creates a ROOT file in the layout read by File: the event
// vectors as a single-entry tree and each histogram under its map key.
// A cycle suffix in a key (";1") is dropped.
func WriteFile(fname string, names Names, evts Events, hists map[string]*hbook.H1D) error {
	if err := evts.Check(); err != nil {
		return err
	}

	f, err := groot.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create output file %q: %w", fname, err)
	}
	defer f.Close()

	cols := []struct {
		name string
		v    []float64
	}{
		{names.BackgroundEnergy, evts.Background.Energy},
		{names.BackgroundWeights, evts.Background.Weight},
		{names.BackgroundPOT, evts.Background.POT},
		{names.TrueEnergy, evts.SignalTrue.Energy},
		{names.TrueWeights, evts.SignalTrue.Weight},
		{names.TruePOT, evts.SignalTrue.POT},
		{names.RecoEnergy, evts.SignalReco.Energy},
		{names.RecoWeights, evts.SignalReco.Weight},
		{names.RecoPOT, evts.SignalReco.POT},
		{names.DataEnergy, evts.Data.Energy},
		{names.DataPOT, evts.Data.POT},
	}

	wvars := make([]rtree.WriteVar, len(cols))
	for i := range cols {
		if cols[i].v == nil {
			cols[i].v = []float64{}
		}
		wvars[i] = rtree.WriteVar{Name: cols[i].name, Value: &cols[i].v}
	}

	w, err := rtree.NewWriter(f, names.Tree, wvars, rtree.WithTitle("analysis event vectors"))
	if err != nil {
		return fmt.Errorf("could not create tree %q: %w", names.Tree, err)
	}
	if _, err := w.Write(); err != nil {
		return fmt.Errorf("could not write tree %q: %w", names.Tree, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("could not close tree %q: %w", names.Tree, err)
	}

	keys := make([]string, 0, len(hists))
	for k := range hists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if i := strings.Index(name, ";"); i >= 0 {
			name = name[:i]
		}
		if err := f.Put(name, rhist.NewH1DFrom(hists[k])); err != nil {
			return fmt.Errorf("could not write histogram %q: %w", name, err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close output file %q: %w", fname, err)
	}
	return nil
}
