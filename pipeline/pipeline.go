// Package pipeline runs the cross-section extraction end to end: load,
// fill, subtract, unfold, normalize and draw.
package pipeline

import (
	"errors"
	"fmt"
	"strconv"

	"go-hep.org/x/hep/hbook"
	"go.uber.org/zap"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/input"
	"github.com/decibelcooper/nuxsec/render"
	"github.com/decibelcooper/nuxsec/unfold"
	"github.com/decibelcooper/nuxsec/xsec"
)

// ErrNoUnfolder is returned by Run when no unfolding method is available.
// Nothing else can be computed without one.
var ErrNoUnfolder = errors.New("pipeline: no unfolding method available")

// Output holds every distribution produced by Run.
type Output struct {
	Background      *hbook.H1D
	SignalTrue      *hbook.H1D
	SignalReco      *hbook.H1D
	Data            *hbook.H1D
	DataMinusBkg    *hbook.H1D
	Response        *hist.Response
	Unfolded        unfold.Result
	UnfoldedH       *hbook.H1D
	Flux            *hbook.H1D
	Efficiency      *hbook.H1D
	CrossSection    *hbook.H1D
	CrossSectionGeV *hbook.H1D
	PredictionCV    *hbook.H1D
	PredictionLow   *hbook.H1D
	PredictionHigh  *hbook.H1D
	Files           []string
}

// Run executes the analysis described by cfg on the inputs of src. Plots
// are drawn with out; a nil out skips drawing.
func Run(cfg Config, src input.Source, unf unfold.Unfolder, out *render.Renderer, logger *zap.Logger) (Output, error) {
	var res Output

	if logger == nil {
		logger = zap.NewNop()
	}
	if unf == nil {
		return res, ErrNoUnfolder
	}
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	evts, err := src.Events()
	if err != nil {
		return res, fmt.Errorf("could not load events: %w", err)
	}
	// raw vector sizes, before weights and POT balancing
	logger.Info("loaded events",
		zap.Int("background", evts.Background.Len()),
		zap.Int("signal_true", evts.SignalTrue.Len()),
		zap.Int("signal_reco", evts.SignalReco.Len()),
		zap.Int("data", evts.Data.Len()),
	)

	for _, h := range []struct {
		dst  **hbook.H1D
		name string
	}{
		{&res.Flux, cfg.Names.Flux},
		{&res.Efficiency, cfg.Names.Efficiency},
		{&res.PredictionCV, cfg.Names.PredictionCV},
		{&res.PredictionLow, cfg.Names.PredictionLow},
		{&res.PredictionHigh, cfg.Names.PredictionHigh},
	} {
		*h.dst, err = src.H1D(h.name)
		if err != nil {
			return res, fmt.Errorf("could not load histogram: %w", err)
		}
	}
	hist.Label(res.Flux, "Flux_h")
	hist.Label(res.Efficiency, "Efficiency_h")

	if err := fillSpectra(cfg.Binning, evts, &res); err != nil {
		return res, err
	}

	res.DataMinusBkg, err = hist.Subtract("Data_Minus_Background_h", res.Data, res.Background)
	if err != nil {
		return res, fmt.Errorf("could not subtract background: %w", err)
	}

	res.Response, err = hist.BuildResponse(cfg.Binning, evts.SignalReco.Energy, evts.SignalTrue.Energy, evts.SignalReco.Weight)
	if err != nil {
		return res, fmt.Errorf("could not build response: %w", err)
	}
	logger.Info("filled response", zap.Int("entries", res.Response.Entries()))

	tag := methodTag(cfg.Method)
	// the unfolder in use, which need not be the one cfg describes
	logger.Info("unfolding", zap.String("unfolder", fmt.Sprint(unf)))
	res.Unfolded, err = unf.Unfold(res.Response, res.DataMinusBkg)
	if err != nil {
		return res, fmt.Errorf("could not unfold: %w", err)
	}
	res.UnfoldedH, err = res.Unfolded.H1D("Unfolded_Data_" + tag + "_h")
	if err != nil {
		return res, err
	}

	norm := xsec.Normalizer{
		Binning:      cfg.XSecBinning,
		Exposure:     cfg.Exposure,
		Targets:      cfg.Targets,
		Multiplicity: cfg.Multiplicity,
		Scale:        cfg.Scale,
		Logger:       logger,
	}
	res.CrossSection, err = norm.Normalize("CrossSection_"+tag+"_h", res.Unfolded, res.Flux, res.Efficiency)
	if err != nil {
		return res, fmt.Errorf("could not normalize: %w", err)
	}
	res.CrossSectionGeV, err = xsec.Rescale("XSEC_Overlay_"+tag+"_h", res.CrossSection, cfg.OverlayFactor)
	if err != nil {
		return res, err
	}

	if out == nil {
		return res, nil
	}
	if err := draw(out, &res); err != nil {
		return res, err
	}
	return res, nil
}

func fillSpectra(b hist.Binning, evts input.Events, res *Output) error {
	var err error
	for _, s := range []struct {
		dst    **hbook.H1D
		label  string
		sample input.Sample
	}{
		{&res.Background, "Background_h", evts.Background},
		{&res.SignalTrue, "CCQE_NuMu_True_h", evts.SignalTrue},
		{&res.SignalReco, "CCQE_NuMu_Reco_h", evts.SignalReco},
		{&res.Data, "Data_h", evts.Data},
	} {
		*s.dst, err = hist.Build(s.label, b, s.sample.Energy, s.sample.Weight, s.sample.POT)
		if err != nil {
			return fmt.Errorf("could not fill %s: %w", s.label, err)
		}
	}
	return nil
}

func draw(out *render.Renderer, res *Output) error {
	for _, p := range []struct {
		h    *hbook.H1D
		errs bool
	}{
		{res.CrossSection, true},
		{res.Efficiency, false},
		{res.Flux, false},
		{res.UnfoldedH, true},
		{res.DataMinusBkg, false},
		{res.Data, false},
		{res.Background, false},
		{res.SignalTrue, false},
		{res.SignalReco, false},
	} {
		fname, err := out.Save(hist.Name(p.h), p.h, p.errs)
		if err != nil {
			return err
		}
		res.Files = append(res.Files, fname)
	}

	fname, err := out.Overlay("XSEC_Overlaid", res.CrossSectionGeV, res.PredictionCV, res.PredictionLow, res.PredictionHigh)
	if err != nil {
		return err
	}
	res.Files = append(res.Files, fname)

	fname, err = out.Save(hist.Name(res.CrossSectionGeV), res.CrossSectionGeV, true)
	if err != nil {
		return err
	}
	res.Files = append(res.Files, fname)

	return out.Archive("xsec_results",
		res.Background, res.SignalTrue, res.SignalReco, res.Data,
		res.DataMinusBkg, res.UnfoldedH, res.CrossSection, res.CrossSectionGeV,
	)
}

func methodTag(method string) string {
	switch method {
	case "bayes":
		return "Bayes"
	case "binbybin":
		return "BinByBin"
	}
	return method
}

// Axes returns the axis titles of the analysis plots for an exposure in
// POT.
func Axes(exposure float64) map[string]render.Axes {
	pot := strconv.FormatFloat(exposure, 'g', 3, 64)
	const xsecY = "Cross Section [1e-38 cm^2 / Argon]"
	axes := map[string]render.Axes{
		"Background_h":            {X: "Reco Neutrino Energy (MeV)", Y: "Selected Background Events in " + pot},
		"CCQE_NuMu_True_h":        {X: "True Neutrino Energy (MeV)", Y: "Selected CCQE_NuMu Events in " + pot},
		"CCQE_NuMu_Reco_h":        {X: "Reco Neutrino Energy (MeV)", Y: "Selected CCQE_NuMu Events in " + pot},
		"Data_h":                  {X: "Reco Neutrino Energy (MeV)", Y: "Selected Data Events in " + pot},
		"Data_Minus_Background_h": {X: "Reco Neutrino Energy (MeV)", Y: "Selected Data Minus Background Events in " + pot},
		"Flux_h":                  {X: "Neutrino Energy (MeV)", Y: "Flux"},
		"Efficiency_h":            {X: "True Neutrino Energy (MeV)", Y: "Selection Efficiency"},
		"XSEC_Overlaid":           {X: "Neutrino Energy (GeV)", Y: xsecY},
	}
	for _, tag := range []string{"Bayes", "BinByBin"} {
		axes["Unfolded_Data_"+tag+"_h"] = render.Axes{X: "Neutrino Energy (MeV)", Y: "Selected Events in " + pot}
		axes["CrossSection_"+tag+"_h"] = render.Axes{X: "Neutrino Energy (MeV)", Y: xsecY}
		axes["XSEC_Overlay_"+tag+"_h"] = render.Axes{X: "Neutrino Energy (GeV)", Y: xsecY}
	}
	return axes
}
