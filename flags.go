package nuxsec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/decibelcooper/nuxsec/hist"
)

// BinningFlag is a flag.Value for an equal-width binning given as
// "nbins,low,high".
type BinningFlag struct {
	Binning hist.Binning
	beenSet bool
}

func (f *BinningFlag) Set(valueStr string) error {
	fields := strings.Split(valueStr, ",")
	if len(fields) != 3 {
		return fmt.Errorf("binning %q: want nbins,low,high", valueStr)
	}

	n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return err
	}

	var edges [2]float64
	for i, field := range fields[1:] {
		edges[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return err
		}
	}

	b := hist.Binning{N: n, Low: edges[0], High: edges[1]}
	if err := b.Validate(); err != nil {
		return err
	}

	f.Binning = b
	f.beenSet = true
	return nil
}

// IsSet reports whether the flag was given on the command line.
func (f *BinningFlag) IsSet() bool {
	return f.beenSet
}

func (f *BinningFlag) String() string {
	return fmt.Sprintf("%d,%g,%g", f.Binning.N, f.Binning.Low, f.Binning.High)
}
