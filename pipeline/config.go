package pipeline

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/nuxsec/hist"
	"github.com/decibelcooper/nuxsec/input"
	"github.com/decibelcooper/nuxsec/unfold"
)

// Config holds every constant of the analysis.
type Config struct {
	Input  string      `yaml:"input"`
	Output string      `yaml:"output"`
	Names  input.Names `yaml:"names"`

	// Binning of the reco/true spectra, the response and the unfolding.
	// It should extend past the cross-section range so that events
	// smeared out of the range can be unfolded back into it.
	Binning hist.Binning `yaml:"binning"`
	// XSecBinning is the restricted range of the final cross section.
	XSecBinning hist.Binning `yaml:"xsec_binning"`

	Exposure     float64 `yaml:"exposure"`
	Targets      float64 `yaml:"targets"`
	Multiplicity float64 `yaml:"multiplicity"`
	Scale        float64 `yaml:"scale"`

	Method     string           `yaml:"method"`
	Iterations int              `yaml:"iterations"`
	Errors     unfold.ErrorMode `yaml:"errors"`

	// OverlayFactor converts the cross-section axis to the units of the
	// external predictions.
	OverlayFactor float64 `yaml:"overlay_factor"`
	Format        string  `yaml:"format"`
}

// DefaultConfig returns the configuration of the MicroBooNE Run 3
// CCQE numu tutorial.
func DefaultConfig() Config {
	return Config{
		Input:  "XSEC_InputsFile_RooUnfold.root",
		Output: "XSEC_Tutorial_Outputs_Data",
		Names:  input.DefaultNames(),

		Binning:     hist.Binning{N: 15, Low: 0, High: 1500},
		XSecBinning: hist.Binning{N: 10, Low: 0, High: 1000},

		Exposure: 2.429524e20,

		// 256.25×233×1036.8 cm³ × 1.3984 g/cm³ / 39.95 g/mol × 6.022e23 × 22 n/Ar
		Targets:      2.87e31,
		Multiplicity: 22,
		Scale:        1e38,

		Method:     "bayes",
		Iterations: 4,
		Errors:     unfold.ErrCovariance,

		OverlayFactor: 1e-3,
		Format:        "png",
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default value.
func LoadConfig(fname string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("could not read config %q: %w", fname, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("could not decode config %q: %w", fname, err)
	}
	return cfg, nil
}

// Validate checks the configuration before any input is read.
func (c Config) Validate() error {
	if c.Output == "" {
		return errors.New("config: output directory not set")
	}
	if err := c.Binning.Validate(); err != nil {
		return fmt.Errorf("config: binning: %w", err)
	}
	if err := c.XSecBinning.Validate(); err != nil {
		return fmt.Errorf("config: xsec_binning: %w", err)
	}
	if c.XSecBinning.N > c.Binning.N {
		return fmt.Errorf("config: xsec_binning has %d bins, more than the %d unfolded bins", c.XSecBinning.N, c.Binning.N)
	}
	if w, xw := c.Binning.Width(), c.XSecBinning.Width(); c.XSecBinning.Low != c.Binning.Low || !approxEqual(w, xw) {
		return fmt.Errorf("config: xsec_binning (%v) must share low edge and bin width with binning (%v)", c.XSecBinning, c.Binning)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("config: iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Errors < unfold.ErrNone || c.Errors > unfold.ErrCovariance {
		return fmt.Errorf("config: unknown error mode %d", int(c.Errors))
	}
	if c.Exposure <= 0 || c.Targets <= 0 {
		return errors.New("config: exposure and targets must be positive")
	}
	if c.Scale == 0 || c.Multiplicity == 0 {
		return errors.New("config: scale and multiplicity must be non-zero")
	}
	if c.OverlayFactor <= 0 {
		return errors.New("config: overlay_factor must be positive")
	}
	return nil
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-9*(a+b)
}
