package input

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/decibelcooper/nuxsec/hist"
)

// File is a Source reading a ROOT file. The event vectors are stored as
// std::vector<double> branches of the first entry of a tree.
type File struct {
	f     *riofs.File
	names Names
}

// Open opens a ROOT file for reading.
func Open(fname string, names Names) (*File, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open input file %q: %w", fname, err)
	}
	return &File{f: f, names: names}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

func (f *File) Events() (Events, error) {
	obj, err := f.f.Get(f.names.Tree)
	if err != nil {
		return Events{}, fmt.Errorf("could not find tree %q: %w", f.names.Tree, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return Events{}, fmt.Errorf("input: object %q is a %T, not a tree", f.names.Tree, obj)
	}

	var (
		evts Events
		buf  = make(map[string]*[]float64)
		dsts = map[string]*[]float64{
			f.names.BackgroundEnergy:  &evts.Background.Energy,
			f.names.BackgroundWeights: &evts.Background.Weight,
			f.names.BackgroundPOT:     &evts.Background.POT,
			f.names.TrueEnergy:        &evts.SignalTrue.Energy,
			f.names.TrueWeights:       &evts.SignalTrue.Weight,
			f.names.TruePOT:           &evts.SignalTrue.POT,
			f.names.RecoEnergy:        &evts.SignalReco.Energy,
			f.names.RecoWeights:       &evts.SignalReco.Weight,
			f.names.RecoPOT:           &evts.SignalReco.POT,
			f.names.DataEnergy:        &evts.Data.Energy,
			f.names.DataPOT:           &evts.Data.POT,
		}
		rvars []rtree.ReadVar
	)
	for name := range dsts {
		v := new([]float64)
		buf[name] = v
		rvars = append(rvars, rtree.ReadVar{Name: name, Value: v})
	}

	r, err := rtree.NewReader(tree, rvars, rtree.WithRange(0, 1))
	if err != nil {
		return Events{}, fmt.Errorf("could not create reader for tree %q: %w", f.names.Tree, err)
	}
	defer r.Close()

	err = r.Read(func(ctx rtree.RCtx) error {
		for name, dst := range dsts {
			*dst = append([]float64(nil), *buf[name]...)
		}
		return nil
	})
	if err != nil {
		return Events{}, fmt.Errorf("could not read tree %q: %w", f.names.Tree, err)
	}

	return evts, evts.Check()
}

func (f *File) H1D(name string) (*hbook.H1D, error) {
	obj, err := f.f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("could not find histogram %q: %w", name, err)
	}
	h1, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("input: object %q is a %T, not a 1-D histogram", name, obj)
	}

	h := rootcnv.H1D(h1)
	hist.Label(h, h1.Name())
	return h, nil
}
