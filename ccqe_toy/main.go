package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/decibelcooper/nuxsec"
	"github.com/decibelcooper/nuxsec/input"
	"github.com/decibelcooper/nuxsec/toy"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options]

Writes a toy input file for ccqe_xsec with a known cross section.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	var (
		binning nuxsec.BinningFlag

		output   = flag.String("output", "toy.root", "output ROOT file")
		seed     = flag.Uint64("seed", 1, "random seed")
		mcFactor = flag.Float64("mc", 2, "simulated exposure in units of the data exposure")
	)
	flag.Var(&binning, "binning", "true energy binning as nbins,low,high (MeV)")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 0 {
		printUsage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *mcFactor <= 0 {
		logger.Fatal("invalid simulated exposure", zap.Float64("mc", *mcFactor))
	}

	model := toy.DefaultModel()
	model.MCFactor = *mcFactor
	if binning.IsSet() {
		model.Binning = binning.Binning
	}

	names := input.DefaultNames()
	evts, hists := model.Generate(*seed, names)
	logger.Info("generated toy",
		zap.Uint64("seed", *seed),
		zap.Int("background", evts.Background.Len()),
		zap.Int("signal", evts.SignalTrue.Len()),
		zap.Int("data", evts.Data.Len()),
	)

	if err := input.WriteFile(*output, names, evts, hists); err != nil {
		logger.Fatal("could not write toy", zap.Error(err))
	}
	logger.Info("wrote toy", zap.String("file", *output))
}
