package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/input"
	"github.com/decibelcooper/nuxsec/render"
	"github.com/decibelcooper/nuxsec/toy"
	"github.com/decibelcooper/nuxsec/unfold"
)

// identity unfolds by returning the measurement unchanged.
type identity struct{}

func (identity) Unfold(resp *hist.Response, measured *hbook.H1D) (unfold.Result, error) {
	b := resp.Binning
	return unfold.Result{Binning: b, Content: hist.Contents(measured), Err: hist.Errs(measured)}, nil
}

type failing struct{}

func (failing) Unfold(*hist.Response, *hbook.H1D) (unfold.Result, error) {
	return unfold.Result{}, errors.New("boom")
}

func flat(t *testing.T, name string, b hist.Binning, v float64) *hbook.H1D {
	t.Helper()
	vals := make([]float64, b.N)
	for i := range vals {
		vals[i] = v
	}
	h, err := hist.FromValues(name, b, vals, nil)
	require.NoError(t, err)
	return h
}

func smallSource(t *testing.T, names input.Names) *input.Memory {
	t.Helper()
	b := hist.Binning{N: 15, Low: 0, High: 1500}
	gev := hist.Binning{N: 15, Low: 0, High: 1.5}
	return &input.Memory{
		Samples: input.Events{
			Background: input.Sample{
				Energy: []float64{550, 550, 720},
				Weight: []float64{1, 1, 1},
				POT:    []float64{0.5, 0.5, 0.5},
			},
			SignalTrue: input.Sample{
				Energy: []float64{520, 540, 710, 760},
				Weight: []float64{1, 1, 1, 1},
				POT:    []float64{1, 1, 1, 1},
			},
			SignalReco: input.Sample{
				Energy: []float64{530, 580, 705, 790},
				Weight: []float64{1, 1, 1, 1},
				POT:    []float64{1, 1, 1, 1},
			},
			Data: input.Sample{
				Energy: []float64{500, 510, 520, 700, 750},
				POT:    []float64{1, 1, 1, 1, 1},
			},
		},
		Hists: map[string]*hbook.H1D{
			names.Flux:           flat(t, names.Flux, b, 1e-10),
			names.Efficiency:     flat(t, names.Efficiency, b, 0.5),
			names.PredictionCV:   flat(t, names.PredictionCV, gev, 20),
			names.PredictionLow:  flat(t, names.PredictionLow, gev, 18),
			names.PredictionHigh: flat(t, names.PredictionHigh, gev, 22),
		},
	}
}

func TestRunNoUnfolder(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Run(cfg, smallSource(t, cfg.Names), nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoUnfolder)
}

func TestRunSpectra(t *testing.T) {
	cfg := DefaultConfig()
	res, err := Run(cfg, smallSource(t, cfg.Names), identity{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, hist.Content(res.Background, 5))
	assert.Equal(t, 0.5, hist.Content(res.Background, 7))
	assert.Equal(t, 3.0, hist.Content(res.Data, 5))
	assert.Equal(t, 2.0, hist.Content(res.Data, 7))
	assert.Equal(t, 2.0, hist.Content(res.DataMinusBkg, 5))
	assert.Equal(t, 1.5, hist.Content(res.DataMinusBkg, 7))
	assert.Equal(t, 2.0, hist.Content(res.SignalTrue, 5))
	assert.Equal(t, 2.0, hist.Content(res.SignalReco, 7))
	assert.Equal(t, 4, res.Response.Entries())

	assert.Equal(t, "Flux_h", hist.Name(res.Flux))
	assert.Equal(t, "Efficiency_h", hist.Name(res.Efficiency))
	assert.Equal(t, "Unfolded_Data_Bayes_h", hist.Name(res.UnfoldedH))
	assert.Equal(t, "CrossSection_Bayes_h", hist.Name(res.CrossSection))
	assert.Equal(t, "XSEC_Overlay_Bayes_h", hist.Name(res.CrossSectionGeV))

	// 2 × 22 × 1e38 / (2.87e31 × 1e-10 × 2.429524e20 × 0.5)
	require.Equal(t, 10, res.CrossSection.Len())
	want := 2 * 22 * 1e38 / (2.87e31 * 1e-10 * 2.429524e20 * 0.5)
	assert.InEpsilon(t, want, hist.Content(res.CrossSection, 5), 1e-9)
	assert.Equal(t, 0.0, hist.Content(res.CrossSection, 0))
	assert.InDelta(t, 1.0, res.CrossSectionGeV.XMax(), 1e-12)
	assert.Empty(t, res.Files)
}

func TestRunLogsUnfolderInUse(t *testing.T) {
	cfg := DefaultConfig()
	core, logs := observer.New(zapcore.InfoLevel)

	u := unfold.Bayes{Iterations: 2, Errors: unfold.ErrDiagonal}
	_, err := Run(cfg, smallSource(t, cfg.Names), u, nil, zap.New(core))
	require.NoError(t, err)

	entries := logs.FilterMessage("unfolding").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bayes(iterations=2, errors=diagonal)", entries[0].ContextMap()["unfolder"])
}

func TestRunUnfolderError(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Run(cfg, smallSource(t, cfg.Names), failing{}, nil, nil)
	assert.Error(t, err)
}

func TestRunMissingHistogram(t *testing.T) {
	cfg := DefaultConfig()
	src := smallSource(t, cfg.Names)
	delete(src.Hists, cfg.Names.Efficiency)
	_, err := Run(cfg, src, identity{}, nil, nil)
	assert.Error(t, err)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 0
	_, err := Run(cfg, smallSource(t, cfg.Names), identity{}, nil, nil)
	assert.Error(t, err)
}

func TestRunIsRepeatable(t *testing.T) {
	cfg := DefaultConfig()
	evts, hists := toy.DefaultModel().Generate(7, cfg.Names)
	src := &input.Memory{Samples: evts, Hists: hists}
	u := unfold.Bayes{Iterations: cfg.Iterations, Errors: cfg.Errors}

	a, err := Run(cfg, src, u, nil, nil)
	require.NoError(t, err)
	b, err := Run(cfg, src, u, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, hist.Contents(a.CrossSection), hist.Contents(b.CrossSection))
	assert.Equal(t, hist.Errs(a.CrossSection), hist.Errs(b.CrossSection))
}

func TestRunToyClosure(t *testing.T) {
	cfg := DefaultConfig()
	model := toy.DefaultModel()
	evts, hists := model.Generate(42, cfg.Names)
	src := &input.Memory{Samples: evts, Hists: hists}

	for _, method := range unfold.Methods() {
		t.Run(method, func(t *testing.T) {
			cfg := cfg
			cfg.Method = method
			u, err := unfold.Lookup(method, cfg.Iterations, cfg.Errors)
			require.NoError(t, err)

			res, err := Run(cfg, src, u, nil, nil)
			require.NoError(t, err)

			for i := 1; i < cfg.XSecBinning.N; i++ {
				want := cfg.Multiplicity * model.XSec(cfg.XSecBinning.Center(i))
				got := hist.Content(res.CrossSection, i)
				assert.InEpsilon(t, want, got, 0.15, "bin %d", i)
				assert.Greater(t, hist.Err(res.CrossSection, i), 0.0, "bin %d", i)
			}
		})
	}
}

func TestRunDraws(t *testing.T) {
	cfg := DefaultConfig()
	dir := filepath.Join(t.TempDir(), cfg.Output)
	out := render.New(dir, render.WithAxes(Axes(cfg.Exposure)))

	res, err := Run(cfg, smallSource(t, cfg.Names), identity{}, out, nil)
	require.NoError(t, err)

	require.Len(t, res.Files, 11)
	for _, f := range res.Files {
		assert.FileExists(t, f)
		assert.Equal(t, dir, filepath.Dir(f))
	}
	for _, name := range []string{
		"CrossSection_Bayes_h.png",
		"Data_Minus_Background_h.png",
		"XSEC_Overlaid.png",
		"xsec_results.root",
		"xsec_results.yoda",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 13)
}

func TestAxes(t *testing.T) {
	axes := Axes(2.429524e20)
	assert.Equal(t, "Selected Data Events in 2.43e+20", axes["Data_h"].Y)
	assert.Contains(t, axes, "CrossSection_BinByBin_h")
}
