// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simdata_test

import (
	"math"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/infer/linfit"
	"github.com/js-arias/scdiff/norm"
	"github.com/js-arias/scdiff/prior"
	"github.com/js-arias/scdiff/simdata"
	"github.com/montanaflynn/stats"
)

func TestMatrix(t *testing.T) {
	p := simdata.Param{
		Genes:         200,
		CellsPerGroup: 10,
	}
	rng := rand.New(rand.NewPCG(97, 13))
	m, g, err := simdata.Matrix(rng, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	genes := m.Genes()
	if len(genes) != 200 {
		t.Errorf("genes: got %d, want %d", len(genes), 200)
	}
	if g := genes[0]; g != "G00001" {
		t.Errorf("gene name: got %q, want %q", g, "G00001")
	}

	ids := m.Cells()
	if len(ids) != 20 {
		t.Errorf("cells: got %d, want %d", len(ids), 20)
	}
	if c := ids[0]; c != "ESC.1" {
		t.Errorf("cell name: got %q, want %q", c, "ESC.1")
	}

	if lv := g.Groups(); !reflect.DeepEqual(lv, []string{"ESC", "MEF"}) {
		t.Errorf("groups: got %v, want %v", lv, []string{"ESC", "MEF"})
	}
	for _, gr := range g.Groups() {
		if gc := g.GroupCells(gr); len(gc) != 10 {
			t.Errorf("group %q: got %d cells, want %d", gr, len(gc), 10)
		}
	}

	zeros := 0
	for _, gene := range genes {
		for _, v := range m.Gene(gene) {
			if v == 0 {
				zeros++
			}
		}
	}
	if zeros == 0 {
		t.Errorf("expecting dropout events on the simulated matrix")
	}
	if total := len(genes) * len(ids); zeros > total/2 {
		t.Errorf("zero counts: got %d of %d, want less than half", zeros, total)
	}
}

func TestDiffGenes(t *testing.T) {
	p := simdata.Param{
		Genes:         200,
		CellsPerGroup: 10,
	}
	dg, err := simdata.DiffGenes(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dg) != 20 {
		t.Fatalf("differential genes: got %d, want %d", len(dg), 20)
	}
	if g := dg[0]; g != "G00001" {
		t.Errorf("differential gene: got %q, want %q", g, "G00001")
	}

	rng := rand.New(rand.NewPCG(97, 13))
	m, _, err := simdata.Matrix(rng, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the direction of the change alternates
	// between the two groups
	up := groupMean(m, dg[0], 0)
	down := groupMean(m, dg[0], 10)
	if up < 2*down {
		t.Errorf("gene %q: got means %.3f, %.3f, want an up-regulation on the first group", dg[0], up, down)
	}
	up = groupMean(m, dg[1], 10)
	down = groupMean(m, dg[1], 0)
	if up < 2*down {
		t.Errorf("gene %q: got means %.3f, %.3f, want an up-regulation on the second group", dg[1], down, up)
	}
}

// GroupMean returns the mean count of a gene
// over the 10 cells
// starting at the given column.
func groupMean(m *counts.Matrix, gene string, first int) float64 {
	ids := m.Cells()
	var sum int64
	for _, c := range ids[first : first+10] {
		sum += m.Count(gene, c)
	}
	return float64(sum) / 10
}

func TestMatrixDeterminism(t *testing.T) {
	p := simdata.Param{
		Genes:         100,
		CellsPerGroup: 5,
	}

	m1, g1, err := simdata.Matrix(rand.New(rand.NewPCG(2000, 6)), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m2, g2, err := simdata.Matrix(rand.New(rand.NewPCG(2000, 6)), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("matrices from the same seed should be equal")
	}
	if !reflect.DeepEqual(g1, g2) {
		t.Errorf("groups from the same seed should be equal")
	}

	m3, _, err := simdata.Matrix(rand.New(rand.NewPCG(2001, 6)), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reflect.DeepEqual(m1, m3) {
		t.Errorf("matrices from different seeds should be different")
	}
}

func TestMatrixErrors(t *testing.T) {
	tests := map[string]simdata.Param{
		"no genes":         {CellsPerGroup: 5},
		"no cells":         {Genes: 10},
		"equal groups":     {Genes: 10, CellsPerGroup: 5, Groups: [2]string{"ESC", "ESC"}},
		"invalid fraction": {Genes: 10, CellsPerGroup: 5, DiffFraction: 1.5},
		"invalid change":   {Genes: 10, CellsPerGroup: 5, FoldChange: 0.5},
		"invalid dropout":  {Genes: 10, CellsPerGroup: 5, Dropout: 1},
	}

	rng := rand.New(rand.NewPCG(97, 13))
	for name, p := range tests {
		if _, _, err := simdata.Matrix(rng, p); err == nil {
			t.Errorf("%s: expecting error", name)
		}
		if _, err := simdata.DiffGenes(p); err == nil {
			t.Errorf("%s: expecting error on gene list", name)
		}
	}

	p := simdata.Param{Genes: 10, CellsPerGroup: 5}
	if _, _, err := simdata.Matrix(nil, p); err == nil {
		t.Errorf("nil generator: expecting error")
	}
}

// TestPipeline runs the whole analysis
// on a simulated dataset:
// count filtering,
// error model fitting
// with and without groups,
// size factor comparison,
// expression magnitudes,
// and the differential expression tests.
func TestPipeline(t *testing.T) {
	p := simdata.Param{
		Genes:         500,
		CellsPerGroup: 20,
		Dropout:       0.05,
	}
	rng := rand.New(rand.NewPCG(29, 1137))
	m, g, err := simdata.Matrix(rng, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := m.Filter(counts.DefaultFilter())
	if c := len(f.Cells()); c != 40 {
		t.Fatalf("filtered cells: got %d, want %d", c, 40)
	}
	kept := f.Genes()
	if len(kept) >= 500 {
		t.Errorf("filtered genes: got %d, want the rare transcripts removed", len(kept))
	}
	if len(kept) < 300 {
		t.Fatalf("filtered genes: got %d, want 300 or more", len(kept))
	}
	t.Logf("filter: %d of %d genes kept", len(kept), 500)

	dg, err := simdata.DiffGenes(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	isDiff := make(map[string]bool, len(dg))
	for _, gene := range dg {
		isDiff[gene] = true
	}
	keptDiff := 0
	for _, gene := range kept {
		if isDiff[gene] {
			keptDiff++
		}
	}
	if keptDiff < len(dg)/2 {
		t.Fatalf("differential genes after filtering: got %d, want %d or more", keptDiff, len(dg)/2)
	}

	grouped, err := linfit.Fitter{}.Fit(f, g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	grouped = grouped.Valid()
	if c := len(grouped.Cells()); c != 40 {
		t.Fatalf("grouped fit: got %d valid models, want %d", c, 40)
	}

	pooled, err := linfit.Fitter{}.Fit(f, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pooled = pooled.Valid()
	if c := len(pooled.Cells()); c != 40 {
		t.Fatalf("pooled fit: got %d valid models, want %d", c, 40)
	}

	// the size factors from the fit
	// should agree with the median of ratios
	sf := grouped.SizeFactors()
	mr, err := norm.MedianRatio(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fitF, ratioF []float64
	for _, c := range f.Cells() {
		if sf[c] <= 0 {
			t.Errorf("cell %q: invalid fit size factor %.6f", c, sf[c])
		}
		if mr[c] <= 0 {
			t.Errorf("cell %q: invalid ratio size factor %.6f", c, mr[c])
		}
		fitF = append(fitF, sf[c])
		ratioF = append(ratioF, mr[c])
	}
	r, err := stats.Correlation(fitF, ratioF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(r) || r < 0.5 {
		t.Errorf("size factor correlation: got %.6f, want 0.5 or more", r)
	}
	t.Logf("size factor correlation: %.6f", r)

	e, err := grouped.Magnitude(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var mags []float64
	for _, gene := range e.Genes() {
		mags = append(mags, e.Gene(gene)...)
	}
	pr, err := prior.FromMagnitudes(mags, prior.DefaultPoints, prior.DefaultQuantile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dp := diffexp.Param{
		Groups: g,
		Prior:  pr,
		Seed:   11,
	}
	tbG, err := diffexp.Difference(grouped, f, dp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbG.Len() != len(kept) {
		t.Errorf("grouped test: got %d genes, want %d", tbG.Len(), len(kept))
	}

	sig := tbG.Significant(diffexp.DefaultThreshold)
	found := 0
	for _, gene := range sig {
		if isDiff[gene] {
			found++
		}
	}
	if found < keptDiff/2 {
		t.Errorf("grouped test: got %d of %d simulated genes, want %d or more", found, keptDiff, keptDiff/2)
	}
	t.Logf("grouped test: %d significant genes, %d of %d simulated", len(sig), found, keptDiff)

	down := tbG.Down(diffexp.DefaultThreshold)
	if len(down) > len(sig) {
		t.Errorf("down-regulated genes: got %d, want %d or less", len(down), len(sig))
	}
	downDiff := 0
	for _, gene := range down {
		if !isDiff[gene] {
			continue
		}
		downDiff++
		// genes up-regulated on the second group
		// have even identifiers
		v, err := strconv.Atoi(strings.TrimPrefix(gene, "G"))
		if err != nil {
			t.Fatalf("gene %q: unexpected error: %v", gene, err)
		}
		if v%2 != 0 {
			t.Errorf("gene %q: down-regulated, want up-regulation on the first group", gene)
		}
	}
	if downDiff < 5 {
		t.Errorf("down-regulated genes: got %d simulated, want 5 or more", downDiff)
	}

	tbP, err := diffexp.Difference(pooled, f, dp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sigP := tbP.Significant(diffexp.DefaultThreshold)
	if len(sigP) == 0 {
		t.Errorf("pooled test: expecting significant genes")
	}
	t.Logf("pooled test: %d significant genes", len(sigP))

	// a batch identical to the groups
	// removes all the signal
	bp := dp
	bp.Batch = g
	tbB, err := diffexp.Difference(grouped, f, bp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z := tbB.MaxAbsZ(); z > 1e-6 {
		t.Errorf("confounded batch: got max score %.6g, want near zero", z)
	}
	if s := tbB.Significant(diffexp.DefaultThreshold); len(s) > 0 {
		t.Errorf("confounded batch: got %d significant genes, want none", len(s))
	}
}
