package report

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chart saves a bar chart of the median penalty per operator to path. The image format is taken from
// the extension of path (e.g. ".png" or ".svg"). Operators without median penalty are left out.
func Chart(summaries []Summary, path string) error {
	var values plotter.Values
	var names []string
	for _, s := range summaries {
		if math.IsNaN(s.MedianPenalty) {
			continue
		}
		values = append(values, s.MedianPenalty)
		names = append(names, s.Qualname)
	}
	if len(values) == 0 {
		return errors.New("no penalties to chart")
	}

	p := plot.New()
	p.Title.Text = "Median fallback penalty (accel / cpu)"
	p.Y.Label.Text = "penalty ×"
	p.Y.Min = 0
	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "failed to create bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	width := 3*vg.Inch + vg.Length(len(values))*vg.Points(28)
	if err = p.Save(width, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save chart to %q", path)
	}
	return nil
}
