// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package diffexp implements a test
// for differential gene expression
// between two groups of cells,
// based on cell error models.
//
// For each gene,
// the observed counts are mapped
// to log expression magnitudes
// on a prior grid,
// and the difference between the group means
// is scored against a null distribution
// built by randomization of the group labels.
package diffexp

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/prior"
)

// Default parameters of a differential expression analysis.
const (
	// DefaultTrials is the default number
	// of randomization trials.
	DefaultTrials = 150

	// DefaultThreshold is the default threshold
	// for a corrected score
	// to be reported as significant.
	DefaultThreshold = 1.96
)

// score cap used when the randomization
// produces a null distribution without any spread
const maxRawScore = 8

// Param holds the parameters
// of a differential expression analysis.
type Param struct {
	// Groups is the assignment of cells
	// to the two groups under comparison.
	Groups *cells.Groups

	// Batch is an assignment of cells
	// to technical batches.
	// If defined,
	// expression values are centered
	// within each batch
	// before the group comparison.
	Batch *cells.Groups

	// Prior is the expression magnitude prior.
	Prior *prior.Grid

	// Trials is the number of randomization trials.
	// If zero,
	// DefaultTrials is used.
	Trials int

	// CPU is the number of process
	// used for the analysis.
	// If zero,
	// all available CPU will be used.
	CPU int

	// Seed of the random number generator.
	// Each gene uses a generator
	// derived from the seed
	// and the gene identifier,
	// so results are independent
	// of the processing order.
	Seed uint64
}

// A Result is the differential expression result
// of a single gene.
// Positive scores indicate a higher expression
// in the first group.
type Result struct {
	// Gene is the identifier of the gene.
	Gene string

	// Diff is the observed difference
	// between the mean log expression magnitude
	// of the first group
	// and the second group.
	Diff float64

	// Z is the randomization score
	// of the observed difference.
	Z float64

	// P is the two sided p-value
	// of the score.
	P float64

	// AdjP is the p-value
	// corrected for multiple testing
	// with the Benjamini-Hochberg procedure.
	AdjP float64

	// CZ is the score
	// of the corrected p-value,
	// with the sign of the raw score.
	CZ float64
}

// A Table is a collection
// of differential expression results,
// one per gene.
type Table struct {
	geneID map[string]int
	rows   []Result
}

// Difference computes the expression difference
// of each gene of a count matrix
// between two groups of cells.
// All cells of the matrix
// must have a valid error model
// and a group assignment.
func Difference(ms *errmod.Models, cnt *counts.Matrix, p Param) (*Table, error) {
	r, err := newRunner(ms, cnt, p)
	if err != nil {
		return nil, err
	}

	cpu := p.CPU
	if cpu == 0 {
		cpu = runtime.GOMAXPROCS(0)
	}

	geneChan := make(chan geneChanType, cpu*2)
	for range cpu {
		go runGeneDiff(r, geneChan)
	}

	genes := cnt.Genes()
	answer := make(chan geneChanAnswer)
	go func() {
		for _, g := range genes {
			geneChan <- geneChanType{
				gene:   g,
				counts: cnt.Gene(g),
				answer: answer,
			}
		}
		close(geneChan)
	}()

	tb := &Table{
		geneID: make(map[string]int, len(genes)),
		rows:   make([]Result, 0, len(genes)),
	}
	for range genes {
		a := <-answer
		tb.rows = append(tb.rows, Result{
			Gene: a.gene,
			Diff: a.diff,
			Z:    a.z,
		})
	}

	slices.SortFunc(tb.rows, func(a, b Result) int {
		if a.Gene < b.Gene {
			return -1
		}
		if a.Gene > b.Gene {
			return 1
		}
		return 0
	})
	for i, rw := range tb.rows {
		tb.geneID[rw.Gene] = i
	}

	tb.correct()
	return tb, nil
}

// Genes returns the genes of a result table.
func (tb *Table) Genes() []string {
	genes := make([]string, len(tb.rows))
	for i, rw := range tb.rows {
		genes[i] = rw.Gene
	}
	return genes
}

// Len returns the number of genes
// of a result table.
func (tb *Table) Len() int {
	return len(tb.rows)
}

// Result returns the result for a gene.
func (tb *Table) Result(gene string) (Result, bool) {
	i, ok := tb.geneID[gene]
	if !ok {
		return Result{}, false
	}
	return tb.rows[i], true
}

// Significant returns the genes
// with an absolute corrected score
// greater than the given threshold.
func (tb *Table) Significant(threshold float64) []string {
	var genes []string
	for _, rw := range tb.rows {
		if math.Abs(rw.CZ) > threshold {
			genes = append(genes, rw.Gene)
		}
	}
	return genes
}

// Down returns the genes
// with a corrected score
// below the negative of the given threshold,
// that is the genes down-regulated
// in the first group.
func (tb *Table) Down(threshold float64) []string {
	var genes []string
	for _, rw := range tb.rows {
		if rw.CZ < -threshold {
			genes = append(genes, rw.Gene)
		}
	}
	return genes
}

// MaxAbsZ returns the largest absolute value
// of the corrected scores of the table.
func (tb *Table) MaxAbsZ() float64 {
	var max float64
	for _, rw := range tb.rows {
		if v := math.Abs(rw.CZ); v > max {
			max = v
		}
	}
	return max
}

// A runner holds the data shared
// by all the gene workers.
type runner struct {
	cells     []string
	slope     []float64
	intercept []float64
	dropout   []float64

	g1, g2 []int   // cell indexes of each group
	batch  [][]int // cell indexes of each batch

	prior     *prior.Grid
	priorMean float64
	floor     float64

	trials int
	seed   uint64
}

func newRunner(ms *errmod.Models, cnt *counts.Matrix, p Param) (*runner, error) {
	if p.Groups == nil {
		return nil, fmt.Errorf("undefined groups")
	}
	lv := p.Groups.Groups()
	if len(lv) != 2 {
		return nil, fmt.Errorf("got %d groups, want 2", len(lv))
	}
	if p.Prior == nil {
		return nil, fmt.Errorf("undefined prior")
	}

	cs := cnt.Cells()
	r := &runner{
		cells:     cs,
		slope:     make([]float64, len(cs)),
		intercept: make([]float64, len(cs)),
		dropout:   make([]float64, len(cs)),
		prior:     p.Prior,
		priorMean: p.Prior.Mean(),
		floor:     p.Prior.Value(0),
		trials:    p.Trials,
		seed:      p.Seed,
	}
	if r.trials <= 0 {
		r.trials = DefaultTrials
	}

	batches := make(map[string][]int)
	for i, c := range cs {
		m, ok := ms.Model(c)
		if !ok {
			return nil, fmt.Errorf("cell %q: no error model", c)
		}
		if !m.Valid() {
			return nil, fmt.Errorf("cell %q: invalid error model", c)
		}
		r.slope[i] = m.Slope
		r.intercept[i] = m.Intercept
		r.dropout[i] = m.Dropout

		switch g := p.Groups.Group(c); g {
		case lv[0]:
			r.g1 = append(r.g1, i)
		case lv[1]:
			r.g2 = append(r.g2, i)
		default:
			return nil, fmt.Errorf("cell %q: no group assigned", c)
		}

		if p.Batch != nil {
			b := p.Batch.Group(c)
			if b == "" {
				return nil, fmt.Errorf("cell %q: no batch assigned", c)
			}
			batches[b] = append(batches[b], i)
		}
	}
	if len(r.g1) == 0 {
		return nil, fmt.Errorf("group %q has no cells", lv[0])
	}
	if len(r.g2) == 0 {
		return nil, fmt.Errorf("group %q has no cells", lv[1])
	}

	if p.Batch != nil {
		for _, b := range p.Batch.Groups() {
			ix := batches[b]
			if len(ix) == 0 {
				continue
			}
			r.batch = append(r.batch, ix)
		}
	}
	return r, nil
}

type geneChanType struct {
	gene   string
	counts []int64

	answer chan geneChanAnswer
}

type geneChanAnswer struct {
	gene    string
	diff, z float64
}

func runGeneDiff(r *runner, c chan geneChanType) {
	x := make([]float64, len(r.cells))
	perm := make([]int, len(r.cells))
	for cc := range c {
		diff, z := r.gene(cc.gene, cc.counts, x, perm)
		cc.answer <- geneChanAnswer{
			gene: cc.gene,
			diff: diff,
			z:    z,
		}
	}
}

// Gene scores the expression difference of a gene.
// The observed log magnitude of each cell
// is mapped to the nearest point of the prior grid;
// a cell without reads is scored
// as a mixture of the prior expectation
// (a dropout event)
// and the grid floor
// (a gene that is not expressed),
// weighted by the dropout probability
// of the cell.
func (r *runner) gene(gene string, cnt []int64, x []float64, perm []int) (diff, z float64) {
	for i, k := range cnt {
		if k == 0 {
			d := r.dropout[i]
			x[i] = d*r.priorMean + (1-d)*r.floor
			continue
		}
		lm := (math.Log(float64(k)) - r.intercept[i]) / r.slope[i]
		x[i] = r.prior.Value(r.prior.Index(lm))
	}

	// center the values on each batch
	for _, ix := range r.batch {
		var m float64
		for _, i := range ix {
			m += x[i]
		}
		m /= float64(len(ix))
		for _, i := range ix {
			x[i] -= m
		}
	}

	var m1 float64
	for _, i := range r.g1 {
		m1 += x[i]
	}
	m1 /= float64(len(r.g1))
	var m2 float64
	for _, i := range r.g2 {
		m2 += x[i]
	}
	m2 /= float64(len(r.g2))
	diff = m1 - m2

	// null distribution by randomization:
	// the labels are exchangeable under the null,
	// so the distribution is symmetric around zero
	// and only its spread must be estimated.
	h := fnv.New64a()
	h.Write([]byte(gene))
	rng := rand.New(rand.NewPCG(r.seed, h.Sum64()))

	n1 := len(r.g1)
	var sq float64
	for range r.trials {
		for i := range perm {
			perm[i] = i
		}
		rng.Shuffle(len(perm), func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})

		var r1 float64
		for _, i := range perm[:n1] {
			r1 += x[i]
		}
		r1 /= float64(n1)
		var r2 float64
		for _, i := range perm[n1:] {
			r2 += x[i]
		}
		r2 /= float64(len(perm) - n1)
		d := r1 - r2
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(r.trials))

	if sd == 0 {
		if diff == 0 {
			return 0, 0
		}
		if diff > 0 {
			return diff, maxRawScore
		}
		return diff, -maxRawScore
	}
	z = diff / sd
	if z > maxRawScore {
		z = maxRawScore
	}
	if z < -maxRawScore {
		z = -maxRawScore
	}
	return diff, z
}
