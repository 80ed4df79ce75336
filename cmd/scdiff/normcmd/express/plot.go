// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package express

import (
	"image/color"

	"github.com/js-arias/blind"
	"github.com/js-arias/scdiff/cells"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

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
