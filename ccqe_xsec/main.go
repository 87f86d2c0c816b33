package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/decibelcooper/nuxsec"
	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/input"
	"github.com/decibelcooper/nuxsec/pipeline"
	"github.com/decibelcooper/nuxsec/render"
	"github.com/decibelcooper/nuxsec/unfold"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] [<root-input-file>]

Extracts the CCQE numu cross section from selected data events by
background subtraction, unfolding and flux/efficiency normalization.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		binning     nuxsec.BinningFlag
		xsecBinning nuxsec.BinningFlag

		cfgFile    = flag.String("config", "", "YAML configuration file")
		output     = flag.String("output", "", "output directory")
		method     = flag.String("method", "", fmt.Sprintf("unfolding method %v", unfold.Methods()))
		iterations = flag.Int("iterations", 0, "number of Bayes iterations")
		errMode    = flag.Int("errors", -1, "error propagation: 0 none, 1 diagonal, 2 covariance")
		format     = flag.String("format", "", "image format (png, pdf, svg)")
		profDir    = flag.String("profile", "", "write a CPU profile into this directory")
		verbose    = flag.Bool("v", false, "log per-bin normalization inputs")
	)
	flag.Var(&binning, "binning", "unfolding binning as nbins,low,high (MeV)")
	flag.Var(&xsecBinning, "xsec-binning", "cross-section binning as nbins,low,high (MeV)")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() > 1 {
		printUsage()
		os.Exit(2)
	}

	if *profDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*profDir)).Stop()
	}

	logCfg := zap.NewDevelopmentConfig()
	logCfg.DisableStacktrace = true
	logCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if *verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := pipeline.DefaultConfig()
	if *cfgFile != "" {
		cfg, err = pipeline.LoadConfig(*cfgFile)
		if err != nil {
			logger.Fatal("invalid configuration", zap.Error(err))
		}
	}
	if flag.NArg() == 1 {
		cfg.Input = flag.Arg(0)
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *method != "" {
		cfg.Method = *method
	}
	if *iterations != 0 {
		cfg.Iterations = *iterations
	}
	if *errMode >= 0 {
		cfg.Errors = unfold.ErrorMode(*errMode)
	}
	if *format != "" {
		cfg.Format = *format
	}
	if binning.IsSet() {
		cfg.Binning = binning.Binning
	}
	if xsecBinning.IsSet() {
		cfg.XSecBinning = xsecBinning.Binning
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Without an unfolding method nothing downstream can be computed.
	unf, err := unfold.Lookup(cfg.Method, cfg.Iterations, cfg.Errors)
	if err != nil {
		logger.Fatal("unfolding unavailable", zap.Error(err))
	}

	src, err := input.Open(cfg.Input, cfg.Names)
	if err != nil {
		logger.Fatal("could not open input", zap.Error(err))
	}
	defer src.Close()

	out := render.New(cfg.Output,
		render.WithFormat(cfg.Format),
		render.WithAxes(pipeline.Axes(cfg.Exposure)),
		render.WithLogger(logger),
	)

	res, err := pipeline.Run(cfg, src, unf, out, logger)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	b := hist.Of(res.CrossSection)
	for i := 0; i < b.N; i++ {
		logger.Info("cross section",
			zap.Float64("e_low", b.Edge(i)),
			zap.Float64("e_high", b.Edge(i+1)),
			zap.Float64("xsec", hist.Content(res.CrossSection, i)),
			zap.Float64("err", hist.Err(res.CrossSection, i)),
		)
	}
	logger.Info("done", zap.String("output", out.Dir()), zap.Int("plots", len(res.Files)))
}
