// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simdata provides a generator
// of synthetic single cell RNA-seq datasets,
// with two groups of cells
// and a controlled set
// of differentially expressed genes.
package simdata

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
)

// Default parameters of a simulated dataset.
const (
	// DefaultDiffFraction is the default fraction
	// of differentially expressed genes.
	DefaultDiffFraction = 0.1

	// DefaultFoldChange is the default expression ratio
	// of a differentially expressed gene
	// between the two groups.
	DefaultFoldChange = 8

	// DefaultDropout is the default probability
	// of a dropout event.
	DefaultDropout = 0.05
)

// fraction of genes simulated
// as rare transcripts
const lowFraction = 0.15

// Param holds the parameters
// of a simulated dataset.
type Param struct {
	// Genes is the number of genes.
	Genes int

	// CellsPerGroup is the number of cells
	// on each group.
	CellsPerGroup int

	// Groups are the names of the two groups.
	// If empty,
	// "ESC" and "MEF" will be used,
	// in that order.
	Groups [2]string

	// DiffFraction is the fraction of genes
	// with a different expression
	// between the two groups.
	// If zero,
	// DefaultDiffFraction is used.
	DiffFraction float64

	// FoldChange is the expression ratio
	// of a differentially expressed gene.
	// If zero,
	// DefaultFoldChange is used.
	FoldChange float64

	// Dropout is the probability of a dropout event
	// on any gene-cell pair.
	// If zero,
	// DefaultDropout is used.
	Dropout float64
}

func (p Param) fill() (Param, error) {
	if p.Genes < 1 {
		return p, fmt.Errorf("got %d genes, want 1 or more", p.Genes)
	}
	if p.CellsPerGroup < 1 {
		return p, fmt.Errorf("got %d cells per group, want 1 or more", p.CellsPerGroup)
	}
	if p.Groups[0] == "" {
		p.Groups[0] = "ESC"
	}
	if p.Groups[1] == "" {
		p.Groups[1] = "MEF"
	}
	if p.Groups[0] == p.Groups[1] {
		return p, fmt.Errorf("groups must be different")
	}
	if p.DiffFraction == 0 {
		p.DiffFraction = DefaultDiffFraction
	}
	if p.DiffFraction < 0 || p.DiffFraction > 1 {
		return p, fmt.Errorf("invalid differential fraction %.6f", p.DiffFraction)
	}
	if p.FoldChange == 0 {
		p.FoldChange = DefaultFoldChange
	}
	if p.FoldChange < 1 {
		return p, fmt.Errorf("invalid fold change %.6f", p.FoldChange)
	}
	if p.Dropout == 0 {
		p.Dropout = DefaultDropout
	}
	if p.Dropout < 0 || p.Dropout >= 1 {
		return p, fmt.Errorf("invalid dropout probability %.6f", p.Dropout)
	}
	return p, nil
}

// DiffGenes returns the names of the genes
// simulated with a differential expression.
// The genes alternate the direction of the change:
// the first gene is up-regulated
// on the first group,
// the second gene on the second group,
// and so on.
func DiffGenes(p Param) ([]string, error) {
	p, err := p.fill()
	if err != nil {
		return nil, err
	}

	nd := int(p.DiffFraction*float64(p.Genes) + 0.5)
	genes := make([]string, nd)
	for i := range genes {
		genes[i] = geneName(i)
	}
	return genes, nil
}

// Matrix returns a simulated count matrix
// with its group assignment,
// using the given random number generator.
//
// Each gene has a base expression magnitude
// drawn from a log normal distribution;
// a fraction of the genes are rare transcripts
// with magnitudes below a single read per cell,
// so a default count filter
// will remove them.
// Differentially expressed genes
// are always drawn as expressed transcripts.
// Each cell has its own sequencing depth,
// and each gene-cell pair
// can be hit by a dropout event.
func Matrix(rng *rand.Rand, p Param) (*counts.Matrix, *cells.Groups, error) {
	if rng == nil {
		return nil, nil, fmt.Errorf("undefined random number generator")
	}
	p, err := p.fill()
	if err != nil {
		return nil, nil, err
	}

	genes := make([]string, p.Genes)
	for i := range genes {
		genes[i] = geneName(i)
	}

	ids := make([]string, 0, 2*p.CellsPerGroup)
	g := cells.New()
	for _, gr := range p.Groups {
		for i := range p.CellsPerGroup {
			c := fmt.Sprintf("%s.%d", gr, i+1)
			ids = append(ids, c)
			g.Add(c, gr)
		}
	}

	m, err := counts.New(genes, ids)
	if err != nil {
		return nil, nil, err
	}

	// sequencing depth of each cell
	depth := make([]float64, len(ids))
	for i := range depth {
		depth[i] = math.Exp(0.3 * rng.NormFloat64())
	}

	nd := int(p.DiffFraction*float64(p.Genes) + 0.5)
	for gi, gene := range genes {
		mag := math.Exp(4 + rng.NormFloat64())
		if gi >= nd && rng.Float64() < lowFraction {
			// a rare transcript
			mag = math.Exp(rng.NormFloat64() - 2)
		}

		// expression magnitude on each group
		m1, m2 := mag, mag
		if gi < nd {
			if gi%2 == 0 {
				m1 = mag * p.FoldChange
			} else {
				m2 = mag * p.FoldChange
			}
		}

		for ci, c := range ids {
			em := m1
			if ci >= p.CellsPerGroup {
				em = m2
			}
			lambda := em * depth[ci] * math.Exp(0.25*rng.NormFloat64())
			k := int64(math.Round(lambda))
			if rng.Float64() < p.Dropout {
				k = 0
			}
			if err := m.Set(gene, c, k); err != nil {
				return nil, nil, err
			}
		}
	}
	return m, g, nil
}

func geneName(i int) string {
	return fmt.Sprintf("G%05d", i+1)
}
