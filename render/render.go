// Package render draws analysis histograms to image files and archives
// their numeric contents.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/nuxsec"
	"github.com/decibelcooper/nuxsec/hist"
)

// Axes holds the axis titles of one plot.
type Axes struct {
	X, Y string
}

// Renderer writes plots into a single output directory. The directory is
// created on the first write.
type Renderer struct {
	dir    string
	made   bool
	width  vg.Length
	height vg.Length
	ext    string
	axes   map[string]Axes
	logger *zap.Logger
}

type Option func(*Renderer)

// WithSize sets the canvas size of every plot.
func WithSize(w, h vg.Length) Option {
	return func(r *Renderer) {
		r.width = w
		r.height = h
	}
}

// WithFormat sets the image format by file extension ("png", "pdf", "svg").
func WithFormat(ext string) Option {
	return func(r *Renderer) {
		r.ext = strings.TrimPrefix(ext, ".")
	}
}

// WithAxes sets axis titles for plots by label. Labels without an entry
// get no axis titles.
func WithAxes(axes map[string]Axes) Option {
	return func(r *Renderer) {
		for k, v := range axes {
			r.axes[k] = v
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func New(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:    dir,
		width:  6 * vg.Inch,
		height: 4 * vg.Inch,
		ext:    "png",
		axes:   make(map[string]Axes),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

func (r *Renderer) path(name, ext string) (string, error) {
	if !r.made {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return "", fmt.Errorf("could not create output directory %q: %w", r.dir, err)
		}
		r.made = true
	}
	return filepath.Join(r.dir, fileName(name)+"."+ext), nil
}

func fileName(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':', ';':
			return '_'
		}
		return r
	}, label)
}

func (r *Renderer) newPlot(label string) *hplot.Plot {
	p := hplot.New()
	p.Title.Text = label
	p.Title.Padding = 2 * vg.Millimeter
	if axes, ok := r.axes[label]; ok {
		p.X.Label.Text = axes.X
		p.Y.Label.Text = axes.Y
	}
	p.X.Tick.Marker = nuxsec.PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = nuxsec.PreciseTicks{NSuggestedTicks: 5}
	return p
}

// Save draws h alone, with error bars if withErrors is set, into
// <dir>/<label>.<ext> and returns the file path.
func (r *Renderer) Save(label string, h *hbook.H1D, withErrors bool) (string, error) {
	p := r.newPlot(label)

	hp := hplot.NewH1D(h, hplot.WithYErrBars(withErrors))
	hp.Infos.Style = hplot.HInfoNone
	hp.FillColor = nil
	hp.LineStyle.Color = color.RGBA{B: 255, A: 255}
	p.Add(hp)

	return r.write(label, p)
}

// Overlay draws a measurement over a central prediction and its
// low/high envelope. The envelope is drawn as a gray fill of high masked
// by a white fill of low.
func (r *Renderer) Overlay(name string, measured, central, low, high *hbook.H1D) (string, error) {
	p := r.newPlot(name)
	p.Legend.Top = true
	p.Legend.Padding = 2 * vg.Millimeter

	hHigh := hplot.NewH1D(high)
	hHigh.Infos.Style = hplot.HInfoNone
	hHigh.FillColor = color.Gray{Y: 192}
	hHigh.LineStyle.Color = color.Gray{Y: 192}
	p.Add(hHigh)

	hLow := hplot.NewH1D(low)
	hLow.Infos.Style = hplot.HInfoNone
	hLow.FillColor = color.White
	hLow.LineStyle.Color = color.Gray{Y: 192}
	p.Add(hLow)

	hCentral := hplot.NewH1D(central)
	hCentral.Infos.Style = hplot.HInfoNone
	hCentral.FillColor = nil
	hCentral.LineStyle.Color = color.RGBA{R: 255, A: 255}
	p.Add(hCentral)

	hMeas := hplot.NewH1D(measured, hplot.WithYErrBars(true))
	hMeas.Infos.Style = hplot.HInfoNone
	hMeas.FillColor = nil
	hMeas.LineStyle.Color = color.Black
	hMeas.LineStyle.Width = vg.Points(2)
	p.Add(hMeas)

	p.Legend.Add(labelOr(central, "prediction"), hCentral)
	p.Legend.Add("prediction envelope", hHigh)
	p.Legend.Add(labelOr(measured, "measurement"), hMeas)

	return r.write(name, p)
}

func labelOr(h *hbook.H1D, def string) string {
	if name := hist.Name(h); name != "" {
		return name
	}
	return def
}

func (r *Renderer) write(name string, p *hplot.Plot) (string, error) {
	fname, err := r.path(name, r.ext)
	if err != nil {
		return "", err
	}
	if err := p.Save(r.width, r.height, fname); err != nil {
		return "", fmt.Errorf("could not save plot %q: %w", fname, err)
	}
	r.logger.Info("wrote plot", zap.String("file", fname))
	return fname, nil
}

// Archive writes hists to <dir>/<name>.root and <dir>/<name>.yoda, keyed
// by their labels.
func (r *Renderer) Archive(name string, hists ...*hbook.H1D) error {
	rootName, err := r.path(name, "root")
	if err != nil {
		return err
	}

	f, err := groot.Create(rootName)
	if err != nil {
		return fmt.Errorf("could not create archive %q: %w", rootName, err)
	}
	defer f.Close()

	var yoda bytes.Buffer
	for i, h := range hists {
		key := hist.Name(h)
		if key == "" {
			key = fmt.Sprintf("h%d", i)
			hist.Label(h, key)
		}
		if err := f.Put(fileName(key), rhist.NewH1DFrom(h)); err != nil {
			return fmt.Errorf("could not archive %q: %w", key, err)
		}

		raw, err := h.MarshalYODA()
		if err != nil {
			return fmt.Errorf("could not marshal %q to YODA: %w", key, err)
		}
		yoda.Write(raw)
		yoda.WriteString("\n")
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close archive %q: %w", rootName, err)
	}

	yodaName, err := r.path(name, "yoda")
	if err != nil {
		return err
	}
	if err := os.WriteFile(yodaName, yoda.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not write archive %q: %w", yodaName, err)
	}

	r.logger.Info("wrote archives", zap.String("root", rootName), zap.String("yoda", yodaName))
	return nil
}
