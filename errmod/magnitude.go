// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package errmod

import (
	"fmt"
	"math"

	"github.com/js-arias/scdiff/counts"
)

// Expression is a matrix of expression magnitudes,
// an estimate of the expression of each gene
// on each cell,
// in reads per cell,
// adjusted by the error model of the cell.
type Expression struct {
	genes  []string
	geneID map[string]int
	cells  []string
	cellID map[string]int
	vals   [][]float64
}

// Magnitude returns the expression magnitudes
// for a count matrix,
// inverting the correlated component
// of the model of each cell:
// the magnitude of a gene with c reads
// is exp((log(c)-intercept)/slope).
// A gene without reads
// has a magnitude of zero.
//
// All cells in the count matrix
// must have a defined,
// and valid,
// error model.
func (ms *Models) Magnitude(cnt *counts.Matrix) (*Expression, error) {
	genes := cnt.Genes()
	cs := cnt.Cells()

	e := &Expression{
		genes:  genes,
		geneID: make(map[string]int, len(genes)),
		cells:  cs,
		cellID: make(map[string]int, len(cs)),
		vals:   make([][]float64, len(genes)),
	}
	for i, g := range genes {
		e.geneID[g] = i
		e.vals[i] = make([]float64, len(cs))
	}

	for j, c := range cs {
		e.cellID[c] = j
		m, ok := ms.cell[c]
		if !ok {
			return nil, fmt.Errorf("cell %q: no error model", c)
		}
		if !m.Valid() {
			return nil, fmt.Errorf("cell %q: invalid error model", c)
		}

		col := cnt.Cell(c)
		for i := range genes {
			r := col[i]
			if r == 0 {
				continue
			}
			e.vals[i][j] = math.Exp((math.Log(float64(r)) - m.Intercept) / m.Slope)
		}
	}
	return e, nil
}

// Cells returns the cell identifiers
// of an expression matrix.
func (e *Expression) Cells() []string {
	cs := make([]string, len(e.cells))
	copy(cs, e.cells)
	return cs
}

// Genes returns the gene identifiers
// of an expression matrix.
func (e *Expression) Genes() []string {
	gs := make([]string, len(e.genes))
	copy(gs, e.genes)
	return gs
}

// Value returns the expression magnitude
// of a gene in a cell.
func (e *Expression) Value(gene, cell string) float64 {
	i, ok := e.geneID[gene]
	if !ok {
		return 0
	}
	j, ok := e.cellID[cell]
	if !ok {
		return 0
	}
	return e.vals[i][j]
}

// Gene returns the expression magnitudes
// of a gene over all cells,
// in the same order
// as the cells of the matrix.
func (e *Expression) Gene(gene string) []float64 {
	i, ok := e.geneID[gene]
	if !ok {
		return nil
	}
	v := make([]float64, len(e.vals[i]))
	copy(v, e.vals[i])
	return v
}
