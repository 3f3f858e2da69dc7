// Package plotting renders analysis results to image files with gonum/plot.
// The output format follows the file extension (png, svg, pdf, ...).
package plotting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/analysis"
)

type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 5 * vg.Inch
	}
	return o
}

// WriteTransient plots the voltage history of the given nodes against time.
// With no nodes, every non-ground node is drawn.
func WriteTransient(path string, res *analysis.TransientResult, nodes []string, opts Options) error {
	opts = opts.withDefaults()
	if res == nil || len(res.TimePoints) == 0 {
		return fmt.Errorf("no transient data to plot")
	}
	if len(nodes) == 0 {
		nodes = nonGround(res.NodeVoltageHistory)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())

	for i, id := range nodes {
		hist, ok := res.NodeVoltageHistory[id]
		if !ok {
			return fmt.Errorf("unknown node %s", id)
		}
		line, err := plotter.NewLine(xys(res.TimePoints, hist, nil))
		if err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add("V("+id+")", line)
	}

	return save(path, opts, [][]*plot.Plot{{p}})
}

// WriteBode plots magnitude (dB) and phase (degrees) of one node voltage
// over a logarithmic frequency axis.
func WriteBode(path string, res *analysis.ACSweepResult, node string, opts Options) error {
	opts = opts.withDefaults()
	if res == nil || len(res.FrequencyPoints) == 0 {
		return fmt.Errorf("no ac data to plot")
	}

	freqs := make([]float64, 0, len(res.FrequencyPoints))
	mag := make([]float64, 0, len(res.FrequencyPoints))
	phase := make([]float64, 0, len(res.FrequencyPoints))
	for _, pt := range res.FrequencyPoints {
		v, ok := pt.NodeVoltages[node]
		if !ok {
			return fmt.Errorf("unknown node %s", node)
		}
		freqs = append(freqs, pt.Frequency)
		mag = append(mag, 20*math.Log10(v.Magnitude))
		phase = append(phase, v.Phase)
	}

	positive := func(x, _ float64) bool { return x > 0 }
	magPlot, err := bodePanel(opts.Title, "Magnitude (dB)", xys(freqs, mag, positive))
	if err != nil {
		return err
	}
	phasePlot, err := bodePanel("", "Phase (deg)", xys(freqs, phase, positive))
	if err != nil {
		return err
	}
	phasePlot.X.Label.Text = "Frequency (Hz)"

	return save(path, opts, [][]*plot.Plot{{magPlot}, {phasePlot}})
}

func bodePanel(title, ylabel string, pts plotter.XYs) (*plot.Plot, error) {
	if len(pts) == 0 {
		return nil, fmt.Errorf("%s: nothing to plot", ylabel)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ylabel, err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	return p, nil
}

// xys pairs x and y, dropping non-finite values and points rejected by keep.
func xys(x, y []float64, keep func(x, y float64) bool) plotter.XYs {
	n := min(len(x), len(y))
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		if keep != nil && !keep(x[i], y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}

func nonGround(hist map[string][]float64) []string {
	var ids []string
	for id := range hist {
		if id != consts.GroundNodeID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// save lays the plots out as rows of tiles on one canvas.
func save(path string, opts Options, rows [][]*plot.Plot) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := draw.NewFormattedCanvas(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("unsupported plot format %q: %w", format, err)
	}

	tiles := draw.Tiles{Rows: len(rows), Cols: len(rows[0]), PadY: vg.Millimeter * 4}
	canvases := plot.Align(rows, tiles, draw.New(c))
	for r, row := range rows {
		for col, p := range row {
			p.Draw(canvases[r][col])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := c.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
