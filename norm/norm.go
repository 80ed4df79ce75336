// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package norm provides library size factors
// for single cell count data,
// estimated from the counts alone,
// without any error model.
//
// Factors can be used to normalize the counts of a cell
// by division,
// or to check the library size adjustment
// implied by a set of error models.
package norm

import (
	"fmt"
	"math"

	"github.com/js-arias/scdiff/counts"
	"github.com/montanaflynn/stats"
)

// MedianRatio returns the size factor of each cell
// using the median of the ratios
// between the counts of the cell
// and the geometric mean of the gene
// over all cells.
// Genes without reads in one or more cells
// are ignored,
// as their geometric mean is zero.
//
// "Differential expression analysis for sequence count data",
// Simon Anders and Wolfgang Huber,
// http://genomebiology.com/2010/11/10/r106.
func MedianRatio(m *counts.Matrix) (map[string]float64, error) {
	cs := m.Cells()
	if len(cs) == 1 {
		return map[string]float64{cs[0]: 1}, nil
	}

	genes := m.Genes()
	gm := make([]float64, len(genes))
	var usable int
	for i, g := range genes {
		row := m.Gene(g)
		var sum float64
		skip := false
		for _, r := range row {
			if r == 0 {
				skip = true
				break
			}
			sum += math.Log(float64(r))
		}
		if skip {
			continue
		}
		gm[i] = math.Exp(sum / float64(len(row)))
		usable++
	}
	if usable == 0 {
		return nil, fmt.Errorf("no gene with reads on every cell")
	}

	sf := make(map[string]float64, len(cs))
	rat := make([]float64, 0, usable)
	for _, c := range cs {
		col := m.Cell(c)
		rat = rat[:0]
		for i := range genes {
			if gm[i] == 0 {
				continue
			}
			rat = append(rat, float64(col[i])/gm[i])
		}
		f, err := stats.Median(rat)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %v", c, err)
		}
		sf[c] = f
	}
	return sf, nil
}

// UpperQuartile returns the size factor of each cell
// using the upper quartile
// of the counts of the cell
// scaled by its library size.
// Genes without reads in all cells are ignored.
// The factors are scaled
// so their geometric mean is one.
//
// "Evaluation of statistical methods for normalization
// and differential expression in mRNA-Seq experiments",
// James Bullard et al.,
// http://www.biomedcentral.com/1471-2105/11/94.
func UpperQuartile(m *counts.Matrix) (map[string]float64, error) {
	return quantileFactors(m, 75)
}

func quantileFactors(m *counts.Matrix, percent float64) (map[string]float64, error) {
	cs := m.Cells()
	if len(cs) == 1 {
		return map[string]float64{cs[0]: 1}, nil
	}

	genes := m.Genes()
	skip := make([]bool, len(genes))
	var usable int
	for i, g := range genes {
		row := m.Gene(g)
		skip[i] = true
		for _, r := range row {
			if r > 0 {
				skip[i] = false
				usable++
				break
			}
		}
	}
	if usable == 0 {
		return nil, fmt.Errorf("no gene with reads")
	}

	f := make([]float64, len(cs))
	vals := make([]float64, 0, usable)
	for j, c := range cs {
		size := float64(m.LibSize(c))
		if size == 0 {
			return nil, fmt.Errorf("cell %q: library size is zero", c)
		}
		col := m.Cell(c)
		vals = vals[:0]
		for i := range genes {
			if skip[i] {
				continue
			}
			vals = append(vals, float64(col[i])/size)
		}
		q, err := stats.Percentile(vals, percent)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %v", c, err)
		}
		f[j] = q
	}

	// scale by the geometric mean
	var sum float64
	for _, v := range f {
		sum += math.Log(v)
	}
	gMean := math.Exp(sum / float64(len(f)))

	sf := make(map[string]float64, len(cs))
	for j, c := range cs {
		sf[c] = f[j] / gMean
	}
	return sf, nil
}
