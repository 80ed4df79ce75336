// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package diffexp_test

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/prior"
)

var testCells = []string{
	"ESC.1", "ESC.2", "ESC.3", "ESC.4", "ESC.5",
	"ESC.6", "ESC.7", "ESC.8", "ESC.9", "ESC.10",
	"MEF.1", "MEF.2", "MEF.3", "MEF.4", "MEF.5",
	"MEF.6", "MEF.7", "MEF.8", "MEF.9", "MEF.10",
}

// Genes "Dppa5" and "Pou5f1" are up-regulated
// on the ESC cells,
// "Thy1" is up-regulated on the MEF cells,
// and the counts of any other gene
// are a permutation of the same values
// on both groups.
var testCounts = map[string][]int64{
	"Actb":   {100, 105, 95, 102, 98, 101, 99, 103, 97, 100, 100, 97, 103, 99, 101, 98, 102, 95, 105, 100},
	"Dppa5":  {400, 380, 420, 390, 410, 405, 395, 385, 415, 400, 5, 6, 4, 5, 7, 5, 4, 6, 5, 5},
	"Eef1a1": {150, 148, 152, 155, 145, 151, 149, 153, 147, 150, 150, 147, 153, 149, 151, 145, 155, 152, 148, 150},
	"Gapdh":  {200, 210, 190, 205, 195, 202, 198, 207, 193, 200, 200, 193, 207, 198, 202, 195, 205, 190, 210, 200},
	"Pou5f1": {500, 480, 520, 490, 510, 505, 495, 485, 515, 500, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	"Rpl7":   {80, 82, 78, 84, 76, 81, 79, 83, 77, 80, 80, 77, 83, 79, 81, 76, 84, 78, 82, 80},
	"Rps5":   {120, 118, 122, 124, 116, 121, 119, 123, 117, 120, 120, 117, 123, 119, 121, 116, 124, 122, 118, 120},
	"Thy1":   {4, 5, 6, 5, 4, 5, 6, 4, 5, 5, 300, 320, 310, 305, 295, 315, 290, 325, 300, 310},
	"Tuba1a": {60, 62, 58, 64, 56, 61, 59, 63, 57, 60, 60, 57, 63, 59, 61, 56, 64, 58, 62, 60},
}

func newData(t testing.TB) (*errmod.Models, *counts.Matrix, *cells.Groups, *prior.Grid) {
	t.Helper()

	genes := make([]string, 0, len(testCounts))
	for g := range testCounts {
		genes = append(genes, g)
	}

	cnt, err := counts.New(genes, testCells)
	if err != nil {
		t.Fatalf("unable to create matrix: %v", err)
	}
	for g, row := range testCounts {
		for i, c := range testCells {
			if err := cnt.Set(g, c, row[i]); err != nil {
				t.Fatalf("unable to set count: %v", err)
			}
		}
	}

	ms := errmod.New()
	for _, c := range testCells {
		g, _, _ := strings.Cut(c, ".")
		m := errmod.Model{
			Cell:      c,
			Group:     g,
			Slope:     1,
			Intercept: 0,
			Dropout:   0.1,
			SD:        0.5,
		}
		if err := ms.Add(m); err != nil {
			t.Fatalf("unable to add model: %v", err)
		}
	}

	gr, err := cells.FromPrefix(testCells, []string{"ESC", "MEF"})
	if err != nil {
		t.Fatalf("unable to assign groups: %v", err)
	}

	var mags []float64
	for _, row := range testCounts {
		for _, v := range row {
			mags = append(mags, float64(v))
		}
	}
	pr, err := prior.FromMagnitudes(mags, 100, 0.999)
	if err != nil {
		t.Fatalf("unable to build prior: %v", err)
	}

	return ms, cnt, gr, pr
}

func TestDifference(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	p := diffexp.Param{
		Groups: gr,
		Prior:  pr,
		Seed:   5,
		CPU:    1,
	}
	tb, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}

	if tb.Len() != len(testCounts) {
		t.Fatalf("table size: got %d genes, want %d", tb.Len(), len(testCounts))
	}

	up := []string{"Dppa5", "Pou5f1"}
	for _, g := range up {
		rw, ok := tb.Result(g)
		if !ok {
			t.Fatalf("gene %q: result not found", g)
		}
		if rw.Diff < 1 {
			t.Errorf("gene %q: difference: got %.6f, want a large positive value", g, rw.Diff)
		}
		if rw.CZ < diffexp.DefaultThreshold {
			t.Errorf("gene %q: corrected score: got %.6f, want > %.6f", g, rw.CZ, diffexp.DefaultThreshold)
		}
	}

	rw, ok := tb.Result("Thy1")
	if !ok {
		t.Fatalf("gene %q: result not found", "Thy1")
	}
	if rw.Diff > -1 {
		t.Errorf("gene %q: difference: got %.6f, want a large negative value", "Thy1", rw.Diff)
	}
	if rw.CZ > -diffexp.DefaultThreshold {
		t.Errorf("gene %q: corrected score: got %.6f, want < %.6f", "Thy1", rw.CZ, -diffexp.DefaultThreshold)
	}

	flat := []string{"Actb", "Eef1a1", "Gapdh", "Rpl7", "Rps5", "Tuba1a"}
	for _, g := range flat {
		rw, ok := tb.Result(g)
		if !ok {
			t.Fatalf("gene %q: result not found", g)
		}
		if math.Abs(rw.CZ) > 0.5 {
			t.Errorf("gene %q: corrected score: got %.6f, want a value near zero", g, rw.CZ)
		}
	}

	sig := tb.Significant(diffexp.DefaultThreshold)
	want := []string{"Dppa5", "Pou5f1", "Thy1"}
	if !reflect.DeepEqual(sig, want) {
		t.Errorf("significant genes: got %v, want %v", sig, want)
	}

	down := tb.Down(diffexp.DefaultThreshold)
	if !reflect.DeepEqual(down, []string{"Thy1"}) {
		t.Errorf("down-regulated genes: got %v, want %v", down, []string{"Thy1"})
	}
}

func TestCorrection(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	p := diffexp.Param{
		Groups: gr,
		Prior:  pr,
		Seed:   5,
		CPU:    1,
	}
	tb, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}

	genes := tb.Genes()
	for _, g := range genes {
		rw, _ := tb.Result(g)
		if rw.Z > 0 && rw.CZ < 0 {
			t.Errorf("gene %q: corrected score %.6f does not keep the sign of score %.6f", g, rw.CZ, rw.Z)
		}
		if rw.Z < 0 && rw.CZ > 0 {
			t.Errorf("gene %q: corrected score %.6f does not keep the sign of score %.6f", g, rw.CZ, rw.Z)
		}
		if rw.AdjP < rw.P {
			t.Errorf("gene %q: corrected p-value %.6f smaller than p-value %.6f", g, rw.AdjP, rw.P)
		}
	}

	// the correction must keep the ordering of the scores
	for _, g1 := range genes {
		r1, _ := tb.Result(g1)
		for _, g2 := range genes {
			r2, _ := tb.Result(g2)
			if r1.P < r2.P && r1.AdjP > r2.AdjP {
				t.Errorf("genes %q-%q: corrected p-values %.6f-%.6f do not keep the p-value order", g1, g2, r1.AdjP, r2.AdjP)
			}
			if math.Abs(r1.Z) > math.Abs(r2.Z) && math.Abs(r1.CZ) < math.Abs(r2.CZ) {
				t.Errorf("genes %q-%q: corrected scores %.6f-%.6f do not keep the score order", g1, g2, r1.CZ, r2.CZ)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	p := diffexp.Param{
		Groups: gr,
		Prior:  pr,
		Seed:   5,
		CPU:    1,
	}
	tb1, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}
	tb2, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}
	if !reflect.DeepEqual(tb1, tb2) {
		t.Errorf("results of repeated runs are different")
	}

	// results must be independent
	// of the number of process
	p.CPU = 4
	tb4, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}
	if !reflect.DeepEqual(tb1, tb4) {
		t.Errorf("results with a different number of process are different")
	}
}

func TestBatchConfound(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	// batches identical to the groups:
	// the batch centering removes any group signal,
	// so every score must collapse to zero.
	batch, err := cells.FromPrefix(testCells, []string{"ESC", "MEF"})
	if err != nil {
		t.Fatalf("unable to assign batches: %v", err)
	}

	p := diffexp.Param{
		Groups: gr,
		Batch:  batch,
		Prior:  pr,
		Seed:   5,
		CPU:    1,
	}
	tb, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}

	for _, g := range tb.Genes() {
		rw, _ := tb.Result(g)
		if math.Abs(rw.Z) > 0.000001 {
			t.Errorf("gene %q: score: got %.6g, want a value near zero", g, rw.Z)
		}
	}
	if v := tb.MaxAbsZ(); v > 0.000001 {
		t.Errorf("max absolute corrected score: got %.6g, want a value near zero", v)
	}
	if sig := tb.Significant(diffexp.DefaultThreshold); len(sig) > 0 {
		t.Errorf("significant genes: got %v, want none", sig)
	}
}

func TestTSV(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	p := diffexp.Param{
		Groups: gr,
		Prior:  pr,
		Seed:   5,
		CPU:    1,
	}
	tb, err := diffexp.Difference(ms, cnt, p)
	if err != nil {
		t.Fatalf("unable to compute differences: %v", err)
	}

	var w bytes.Buffer
	if err := tb.TSV(&w); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}

	nt, err := diffexp.ReadTSV(strings.NewReader(w.String()))
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}

	if !reflect.DeepEqual(nt.Genes(), tb.Genes()) {
		t.Errorf("tsv: genes: got %v, want %v", nt.Genes(), tb.Genes())
	}
	for _, g := range tb.Genes() {
		rw, _ := tb.Result(g)
		nr, _ := nt.Result(g)
		if math.Abs(nr.Diff-rw.Diff) > 0.000001 {
			t.Errorf("tsv: gene %q: difference: got %.6f, want %.6f", g, nr.Diff, rw.Diff)
		}
		if math.Abs(nr.Z-rw.Z) > 0.000001 {
			t.Errorf("tsv: gene %q: score: got %.6f, want %.6f", g, nr.Z, rw.Z)
		}
		if math.Abs(nr.CZ-rw.CZ) > 0.000001 {
			t.Errorf("tsv: gene %q: corrected score: got %.6f, want %.6f", g, nr.CZ, rw.CZ)
		}
		if math.Abs(nr.P-rw.P) > 0.000001 {
			t.Errorf("tsv: gene %q: p-value: got %.6f, want %.6f", g, nr.P, rw.P)
		}
		if math.Abs(nr.AdjP-rw.AdjP) > 0.000001 {
			t.Errorf("tsv: gene %q: corrected p-value: got %.6f, want %.6f", g, nr.AdjP, rw.AdjP)
		}
	}
}

func TestDifferenceErrors(t *testing.T) {
	ms, cnt, gr, pr := newData(t)

	p := diffexp.Param{
		Prior: pr,
		CPU:   1,
	}
	if _, err := diffexp.Difference(ms, cnt, p); err == nil {
		t.Errorf("expecting error without groups")
	}

	single := cells.New()
	for _, c := range testCells {
		single.Add(c, "all")
	}
	p.Groups = single
	if _, err := diffexp.Difference(ms, cnt, p); err == nil {
		t.Errorf("expecting error with a single group")
	}

	p.Groups = gr
	p.Prior = nil
	if _, err := diffexp.Difference(ms, cnt, p); err == nil {
		t.Errorf("expecting error without a prior")
	}

	p.Prior = pr
	p.Batch = cells.New()
	if _, err := diffexp.Difference(ms, cnt, p); err == nil {
		t.Errorf("expecting error with unassigned batches")
	}

	p.Batch = nil
	nm := errmod.New()
	if _, err := diffexp.Difference(nm, cnt, p); err == nil {
		t.Errorf("expecting error without models")
	}
}
