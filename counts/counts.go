// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package counts implements a matrix of read counts
// for a set of genes
// observed in a collection of single cells.
package counts

import (
	"fmt"
	"slices"
)

// Matrix is a collection of read counts,
// with one row per gene
// and one column per cell.
// All counts are non-negative.
type Matrix struct {
	genes  []string
	geneID map[string]int

	cells  []string
	cellID map[string]int

	counts [][]int64
}

// New creates a new count matrix
// with the given gene and cell identifiers,
// in the given order,
// and all counts set to zero.
func New(genes, cells []string) (*Matrix, error) {
	m := &Matrix{
		genes:  make([]string, 0, len(genes)),
		geneID: make(map[string]int, len(genes)),
		cells:  make([]string, 0, len(cells)),
		cellID: make(map[string]int, len(cells)),
		counts: make([][]int64, 0, len(genes)),
	}

	for _, g := range genes {
		if g == "" {
			return nil, fmt.Errorf("empty gene identifier")
		}
		if _, dup := m.geneID[g]; dup {
			return nil, fmt.Errorf("gene %q: repeated identifier", g)
		}
		m.geneID[g] = len(m.genes)
		m.genes = append(m.genes, g)
		m.counts = append(m.counts, make([]int64, len(cells)))
	}

	for _, c := range cells {
		if c == "" {
			return nil, fmt.Errorf("empty cell identifier")
		}
		if _, dup := m.cellID[c]; dup {
			return nil, fmt.Errorf("cell %q: repeated identifier", c)
		}
		m.cellID[c] = len(m.cells)
		m.cells = append(m.cells, c)
	}

	return m, nil
}

// Cell returns the counts of all genes
// on the indicated cell,
// in gene order.
func (m *Matrix) Cell(cell string) []int64 {
	c, ok := m.cellID[cell]
	if !ok {
		return nil
	}

	col := make([]int64, len(m.genes))
	for i := range m.genes {
		col[i] = m.counts[i][c]
	}
	return col
}

// Cells returns the cell identifiers,
// in matrix order.
func (m *Matrix) Cells() []string {
	return slices.Clone(m.cells)
}

// Count returns the number of reads of a gene
// on a given cell.
func (m *Matrix) Count(gene, cell string) int64 {
	g, ok := m.geneID[gene]
	if !ok {
		return 0
	}
	c, ok := m.cellID[cell]
	if !ok {
		return 0
	}
	return m.counts[g][c]
}

// Gene returns the counts of a gene
// on all cells,
// in cell order.
func (m *Matrix) Gene(gene string) []int64 {
	g, ok := m.geneID[gene]
	if !ok {
		return nil
	}
	return slices.Clone(m.counts[g])
}

// Genes returns the gene identifiers,
// in matrix order.
func (m *Matrix) Genes() []string {
	return slices.Clone(m.genes)
}

// HasCell returns true if the indicated cell
// is defined in the matrix.
func (m *Matrix) HasCell(cell string) bool {
	_, ok := m.cellID[cell]
	return ok
}

// LibSize returns the library size of a cell,
// that is,
// the sum of the counts of all genes
// on that cell.
func (m *Matrix) LibSize(cell string) int64 {
	c, ok := m.cellID[cell]
	if !ok {
		return 0
	}

	var sum int64
	for i := range m.genes {
		sum += m.counts[i][c]
	}
	return sum
}

// Set sets the number of reads of a gene
// on a given cell.
func (m *Matrix) Set(gene, cell string, reads int64) error {
	if reads < 0 {
		return fmt.Errorf("gene %q, cell %q: negative count %d", gene, cell, reads)
	}
	g, ok := m.geneID[gene]
	if !ok {
		return fmt.Errorf("gene %q: identifier not in matrix", gene)
	}
	c, ok := m.cellID[cell]
	if !ok {
		return fmt.Errorf("cell %q: identifier not in matrix", cell)
	}

	m.counts[g][c] = reads
	return nil
}

// A FilterParam is a collection of thresholds
// used to remove poor cells and genes
// from a count matrix.
type FilterParam struct {
	// Minimum library size of a cell
	// (cells at or below the threshold are removed).
	MinLibSize int64

	// Minimum number of reads of a gene
	// summed over all cells.
	MinReads int64

	// Minimum number of cells
	// in which a gene is detected
	// (i.e., has at least one read).
	MinDetected int
}

// DefaultFilter returns the default thresholds
// for a count matrix filter.
func DefaultFilter() FilterParam {
	return FilterParam{
		MinLibSize:  1800,
		MinReads:    10,
		MinDetected: 5,
	}
}

// Filter returns a new matrix
// removing the cells with a library size
// at or below the minimum library size,
// the genes with reads
// at or below the minimum read number,
// and the genes detected in a number of cells
// at or below the minimum detection threshold.
// The passes are repeated until no cell or gene is removed,
// so filtering an already filtered matrix
// returns an identical matrix.
func (m *Matrix) Filter(p FilterParam) *Matrix {
	genes := slices.Clone(m.genes)
	cells := slices.Clone(m.cells)

	for {
		keptCells := cells[:0:0]
		for _, c := range cells {
			var sum int64
			for _, g := range genes {
				sum += m.counts[m.geneID[g]][m.cellID[c]]
			}
			if sum > p.MinLibSize {
				keptCells = append(keptCells, c)
			}
		}

		keptGenes := genes[:0:0]
		for _, g := range genes {
			var sum int64
			detected := 0
			for _, c := range keptCells {
				v := m.counts[m.geneID[g]][m.cellID[c]]
				sum += v
				if v > 0 {
					detected++
				}
			}
			if sum <= p.MinReads {
				continue
			}
			if detected <= p.MinDetected {
				continue
			}
			keptGenes = append(keptGenes, g)
		}

		done := len(keptCells) == len(cells) && len(keptGenes) == len(genes)
		cells = keptCells
		genes = keptGenes
		if done {
			break
		}
	}

	nm, err := New(genes, cells)
	if err != nil {
		// identifiers come from a valid matrix
		panic(err)
	}
	for _, g := range genes {
		for _, c := range cells {
			nm.counts[nm.geneID[g]][nm.cellID[c]] = m.counts[m.geneID[g]][m.cellID[c]]
		}
	}
	return nm
}
