package main

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

var (
	plotField string
	plotBins  int
	plotX     string
	plotY     string
	plotOut   string
)

// plotCmd represents the plot command
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot crater record fields",
	Long: `Plot numeric fields of the crater records.
With --x and --y a scatter of the two fields is drawn, otherwise a
histogram of --field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()

		if plotX != "" || plotY != "" {
			if plotX == "" || plotY == "" {
				return errors.New("--x and --y must be given together")
			}
			return plotScatter(plotOut, ds.Craters(), plotX, plotY)
		}
		return plotHistogram(plotOut, ds.Craters(), plotField, plotBins)
	},
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fieldValues collects the numeric value of field from every crater that has
// it, and returns how many records were skipped.
func fieldValues(craters []datasets.Crater, field string) (plotter.Values, int) {
	values := make(plotter.Values, 0, len(craters))
	skipped := 0
	for _, c := range craters {
		v, ok := c.Number(field)
		if !ok || !finite(v) {
			skipped++
			continue
		}
		values = append(values, v)
	}
	return values, skipped
}

// fieldPoints pairs the numeric x and y fields of every crater having both.
func fieldPoints(craters []datasets.Crater, x, y string) (plotter.XYs, int) {
	xys := make(plotter.XYs, 0, len(craters))
	skipped := 0
	for _, c := range craters {
		vx, okx := c.Number(x)
		vy, oky := c.Number(y)
		if !okx || !oky || !finite(vx) || !finite(vy) {
			skipped++
			continue
		}
		xys = append(xys, plotter.XY{X: vx, Y: vy})
	}
	return xys, skipped
}

// plotHistogram writes <field>_hist.png into outDir.
func plotHistogram(outDir string, craters []datasets.Crater, field string, bins int) error {
	values, skipped := fieldValues(craters, field)
	if len(values) == 0 {
		return errors.Errorf("no crater record has a numeric %q field", field)
	}
	if skipped > 0 {
		klog.Warningf("%d records have no numeric %q field", skipped, field)
	}

	p := plot.New()
	p.Title.Text = "Crater " + field
	p.X.Label.Text = field
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.WithStack(err)
	}
	h.FillColor = color.RGBA{R: 20, G: 80, B: 200, A: 200}
	p.Add(h)
	p.Add(plotter.NewGrid())

	return savePlot(p, outDir, field+"_hist.png")
}

// plotScatter writes <x>_<y>.png into outDir.
func plotScatter(outDir string, craters []datasets.Crater, x, y string) error {
	xys, skipped := fieldPoints(craters, x, y)
	if len(xys) == 0 {
		return errors.Errorf("no crater record has numeric %q and %q fields", x, y)
	}
	if skipped > 0 {
		klog.Warningf("%d records lack a numeric %q or %q field", skipped, x, y)
	}

	p := plot.New()
	p.Title.Text = "Craters: " + y + " against " + x
	p.X.Label.Text = x
	p.Y.Label.Text = y

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return errors.WithStack(err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 180}
	sc.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(sc)
	p.Add(plotter.NewGrid())

	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = autoRange(xys)
	return savePlot(p, outDir, x+"_"+y+".png")
}

func savePlot(p *plot.Plot, outDir, name string) error {
	if err := ensureDir(outDir); err != nil {
		return errors.WithStack(err)
	}
	outPath := filepath.Join(outDir, name)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return errors.Wrapf(err, "saving %s", outPath)
	}
	klog.Infof("Plot written to %s", outPath)
	return nil
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, p := range xs {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVar(&plotField, "field", "diameter", "crater field for the histogram")
	plotCmd.Flags().IntVar(&plotBins, "bins", 40, "histogram bins")
	plotCmd.Flags().StringVar(&plotX, "x", "", "crater field on the x axis of a scatter")
	plotCmd.Flags().StringVar(&plotY, "y", "", "crater field on the y axis of a scatter")
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "plots", "output directory")
}
