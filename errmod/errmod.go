// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package errmod provides cell error models
// for single cell RNA-seq count data.
//
// An error model describes the relationship
// between the expression magnitude of a gene
// and the reads observed for that gene in a cell,
// including the chance of a dropout event
// (a gene that is expressed
// but produces no reads).
package errmod

import (
	"fmt"
	"math"
	"slices"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
)

// A Model is an error model
// for a single cell.
//
// The correlated component of the model
// is a regression on the log scale,
// so for a gene with expression magnitude m
// the expected number of reads is
// exp(slope*log(m)+intercept).
// The dropout component
// is the probability of observing no reads
// for an expressed gene.
type Model struct {
	// Cell is the identifier of the cell.
	Cell string

	// Group is the group of cells
	// used to fit the model.
	Group string

	// Slope of the correlated component.
	Slope float64

	// Intercept of the correlated component,
	// i.e. the library size adjustment
	// of the cell,
	// on the log scale.
	Intercept float64

	// Dropout is the probability of a dropout event
	// on an expressed gene.
	Dropout float64

	// SD is the residual standard deviation
	// of the correlated component,
	// on the log scale.
	SD float64
}

// Valid returns true if the model is usable.
// A cell with a non-positive slope
// indicates a failure of the fitting procedure,
// and the cell should be removed
// from any downstream analysis.
func (m Model) Valid() bool {
	return m.Slope > 0 && !math.IsNaN(m.Intercept)
}

// Models is a collection of cell error models.
type Models struct {
	cell map[string]Model
}

// New creates a new empty model collection.
func New() *Models {
	return &Models{
		cell: make(map[string]Model),
	}
}

// Add adds a cell model to the collection.
// If the cell has a model defined,
// the previous model will be overwritten.
func (ms *Models) Add(m Model) error {
	if m.Cell == "" {
		return fmt.Errorf("model without a cell")
	}
	ms.cell[m.Cell] = m
	return nil
}

// Cells returns the cells with a defined model.
func (ms *Models) Cells() []string {
	cs := make([]string, 0, len(ms.cell))
	for c := range ms.cell {
		cs = append(cs, c)
	}
	slices.Sort(cs)
	return cs
}

// Groups returns the group assignment
// used to fit the models.
func (ms *Models) Groups() *cells.Groups {
	g := cells.New()
	for _, c := range ms.Cells() {
		m := ms.cell[c]
		if m.Group == "" {
			continue
		}
		g.Add(m.Cell, m.Group)
	}
	return g
}

// Model returns the model for a cell.
func (ms *Models) Model(cell string) (Model, bool) {
	m, ok := ms.cell[cell]
	return m, ok
}

// SizeFactors returns the library size factor
// implied by the model of each cell,
// that is the exponential
// of the model intercept.
func (ms *Models) SizeFactors() map[string]float64 {
	sf := make(map[string]float64, len(ms.cell))
	for c, m := range ms.cell {
		sf[c] = math.Exp(m.Intercept)
	}
	return sf
}

// Valid returns the collection of usable models,
// removing any cell
// in which the fitting procedure failed.
func (ms *Models) Valid() *Models {
	v := New()
	for _, m := range ms.cell {
		if !m.Valid() {
			continue
		}
		v.cell[m.Cell] = m
	}
	return v
}

// A Fitter is any procedure
// that fits an error model
// for each cell of a count matrix.
// If a group assignment is given,
// the fit of each cell
// uses only the cells of its own group;
// if it is nil,
// all cells are pooled together
// as a single group.
type Fitter interface {
	Fit(cnt *counts.Matrix, g *cells.Groups) (*Models, error)
}
