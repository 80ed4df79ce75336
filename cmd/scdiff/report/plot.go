// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package report

import (
	"image/color"

	"github.com/js-arias/blind"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/norm"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ScatterPlot draws the size factors of two methods,
// one cell per point,
// with the cells colored by group.
func scatterPlot(name string, tb *norm.Table, mx, my string, g *cells.Groups) error {
	p := plot.New()
	p.X.Label.Text = mx
	p.Y.Label.Text = my

	x := tb.Column(mx)
	y := tb.Column(my)

	min := x[0]
	max := x[0]
	for _, v := range x {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	for _, v := range y {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	ident := plotter.XYs{{X: min, Y: min}, {X: max, Y: max}}
	l, err := plotter.NewLine(ident)
	if err != nil {
		return err
	}
	l.LineStyle.Color = color.Gray{128}
	p.Add(l)

	groups := []string{""}
	if g != nil {
		groups = g.Groups()
	}
	ids := tb.Cells()
	for i, gr := range groups {
		var pts plotter.XYs
		for j, id := range ids {
			if g != nil && g.Group(id) != gr {
				continue
			}
			pts = append(pts, plotter.XY{X: x[j], Y: y[j]})
		}
		if len(pts) == 0 {
			continue
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = groupColor(i, len(groups))
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		if gr != "" {
			p.Legend.Add(gr, s)
		}
	}
	p.Legend.Top = true

	return p.Save(4*vg.Inch, 4*vg.Inch, name)
}

// A totalsColumn is the per-cell totals
// of a count or expression matrix.
type totalsColumn struct {
	label  string
	totals map[string]float64
}

// TotalsPlot draws the distribution
// of the per-cell totals of each matrix,
// one box per cell group.
func totalsPlot(name string, g *cells.Groups, cols []totalsColumn) error {
	p := plot.New()
	p.Y.Label.Text = "total per cell"

	groups := []string{""}
	if g != nil {
		groups = g.Groups()
	}

	x := 0
	var names []string
	for _, col := range cols {
		for gi, gr := range groups {
			var vals plotter.Values
			for c, v := range col.totals {
				if g != nil && g.Group(c) != gr {
					continue
				}
				vals = append(vals, v)
			}
			if len(vals) == 0 {
				continue
			}

			b, err := plotter.NewBoxPlot(vg.Points(20), float64(x), vals)
			if err != nil {
				return err
			}
			b.FillColor = groupColor(gi, len(groups))
			p.Add(b)

			lbl := col.label
			if gr != "" {
				lbl = col.label + " " + gr
			}
			names = append(names, lbl)
			x++
		}
	}
	p.NominalX(names...)

	return p.Save(6*vg.Inch, 4*vg.Inch, name)
}

func groupColor(i, n int) color.Color {
	if n < 2 {
		return blind.Gradient(0)
	}
	return blind.Sequential(blind.Iridescent, float64(i)/float64(n-1))
}
