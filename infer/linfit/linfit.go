// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package linfit implements a linear fitting mode
// for single cell error models.
//
// For each group of cells
// the fit selects a robust gene set,
// the genes with reads
// in most cells of the group,
// and estimates the expected log expression of each gene
// as the average of its log counts.
// Then each cell is fitted
// with an ordinary least squares regression
// of its observed log counts
// on the expected values,
// so the intercept of the regression
// is the log library size adjustment of the cell.
// The dropout probability of the cell
// is the fraction of robust genes
// without any reads on it.
//
// The fit is deterministic:
// repeated fits over the same data
// produce identical models.
package linfit

import (
	"fmt"
	"math"
	"runtime"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/errmod"
	"gonum.org/v1/gonum/stat"
)

// DefaultMinDetected is the default fraction
// of cells of a group
// in which a gene must have reads
// to be part of the robust gene set.
const DefaultMinDetected = 0.8

// minimum number of detected robust genes
// required to fit a cell
const minGenes = 3

// A Fitter fits cell error models
// with the linear fitting mode.
// It implements the errmod.Fitter interface.
type Fitter struct {
	// MinDetected is the fraction of cells of a group
	// in which a gene must have reads
	// to be part of the robust gene set.
	// If zero,
	// DefaultMinDetected is used.
	MinDetected float64

	// CPU is the number of process
	// used for the fitting.
	// If zero,
	// all available CPU will be used.
	CPU int
}

// Fit fits an error model
// for each cell of a count matrix.
// If a group assignment is given,
// the robust gene set of each cell
// is built from the cells of its own group;
// if it is nil,
// a single set is shared by all cells.
//
// A cell in which the fit fails
// (for example a cell with too few detected genes)
// is reported with an invalid model.
func (f Fitter) Fit(cnt *counts.Matrix, g *cells.Groups) (*errmod.Models, error) {
	minDet := f.MinDetected
	if minDet == 0 {
		minDet = DefaultMinDetected
	}
	if minDet < 0 || minDet > 1 {
		return nil, fmt.Errorf("invalid detection fraction %.6f", minDet)
	}

	cs := cnt.Cells()
	byGroup := make(map[string][]string)
	if g == nil {
		byGroup[""] = cs
	} else {
		for _, c := range cs {
			gr := g.Group(c)
			if gr == "" {
				return nil, fmt.Errorf("cell %q: no group assigned", c)
			}
			byGroup[gr] = append(byGroup[gr], c)
		}
	}

	cpu := f.CPU
	if cpu == 0 {
		cpu = runtime.GOMAXPROCS(0)
	}
	cellChan := make(chan cellChanType, cpu*2)
	for range cpu {
		go runCellFit(cellChan)
	}

	answer := make(chan errmod.Model)
	go func() {
		for gr, gc := range byGroup {
			ref := groupReference(cnt, gc, minDet)
			for _, c := range gc {
				cellChan <- cellChanType{
					cell:   c,
					group:  gr,
					counts: cnt.Cell(c),
					ref:    ref,
					answer: answer,
				}
			}
		}
		close(cellChan)
	}()

	ms := errmod.New()
	for range cs {
		m := <-answer
		if err := ms.Add(m); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// A reference is the robust gene set of a group
// with the expected log expression
// of each robust gene.
type reference struct {
	genes []int // positions of the robust genes
	logE  []float64
}

// GroupReference selects the robust gene set of a group
// and the expected log counts of each robust gene.
func groupReference(cnt *counts.Matrix, gc []string, minDet float64) *reference {
	cols := make([][]int64, len(gc))
	for i, c := range gc {
		cols[i] = cnt.Cell(c)
	}

	ref := &reference{}
	genes := cnt.Genes()
	for i := range genes {
		det := 0
		var sum float64
		for _, col := range cols {
			if col[i] == 0 {
				continue
			}
			det++
			sum += math.Log(float64(col[i]))
		}
		if float64(det) < minDet*float64(len(gc)) || det == 0 {
			continue
		}
		ref.genes = append(ref.genes, i)
		ref.logE = append(ref.logE, sum/float64(det))
	}
	return ref
}

type cellChanType struct {
	cell   string
	group  string
	counts []int64
	ref    *reference

	answer chan errmod.Model
}

func runCellFit(c chan cellChanType) {
	var x, y []float64
	for cc := range c {
		x = x[:0]
		y = y[:0]
		drop := 0
		for i, p := range cc.ref.genes {
			k := cc.counts[p]
			if k == 0 {
				drop++
				continue
			}
			x = append(x, cc.ref.logE[i])
			y = append(y, math.Log(float64(k)))
		}

		m := errmod.Model{
			Cell:  cc.cell,
			Group: cc.group,
		}
		if len(cc.ref.genes) == 0 || len(x) < minGenes {
			m.Slope = math.NaN()
			m.Intercept = math.NaN()
			cc.answer <- m
			continue
		}

		alpha, beta := stat.LinearRegression(x, y, nil, false)
		m.Slope = beta
		m.Intercept = alpha
		m.Dropout = float64(drop) / float64(len(cc.ref.genes))

		var ss float64
		for i, v := range x {
			r := y[i] - (alpha + beta*v)
			ss += r * r
		}
		if len(x) > 2 {
			m.SD = math.Sqrt(ss / float64(len(x)-2))
		}
		cc.answer <- m
	}
}
