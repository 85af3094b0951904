// Package chart renders a grouped series as a PNG line chart, one line per category.
package chart

import (
	"fmt"
	"io"

	"github.com/invertedv/censusdf/trend"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Lines plots each non-empty group of g against year. The result renders as PNG.
func Lines(g trend.Grouped, title, yLabel string) (io.WriterTo, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	n := 0
	for ind, grp := range g {
		if len(grp.Points) == 0 {
			continue
		}

		xys := make(plotter.XYs, len(grp.Points))
		for j, pt := range grp.Points {
			xys[j].X = float64(pt.Year)
			xys[j].Y = pt.Value
		}

		line, points, e := plotter.NewLinePoints(xys)
		if e != nil {
			return nil, fmt.Errorf("chart %s: %w", grp.Category, e)
		}

		line.Color = plotutil.Color(ind)
		points.Color = plotutil.Color(ind)
		points.Shape = plotutil.Shape(ind)

		p.Add(line, points)
		p.Legend.Add(grp.Category, line, points)
		n++
	}

	if n == 0 {
		return nil, fmt.Errorf("chart %q: no points", title)
	}

	p.Legend.Top = true

	return p.WriterTo(width, height, "png")
}
