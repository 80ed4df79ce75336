// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package norm_test

import (
	"math"
	"testing"

	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/norm"
)

func newMatrix(t testing.TB, genes, cells []string, vals map[string][]int64) *counts.Matrix {
	t.Helper()

	m, err := counts.New(genes, cells)
	if err != nil {
		t.Fatalf("unable to create matrix: %v", err)
	}
	for g, row := range vals {
		for i, c := range cells {
			if err := m.Set(g, c, row[i]); err != nil {
				t.Fatalf("unable to set count: %v", err)
			}
		}
	}
	return m
}

func TestMedianRatio(t *testing.T) {
	genes := []string{"g1", "g2", "g3"}
	cells := []string{"c1", "c2", "c3"}

	// cell c2 duplicates the counts of c1,
	// and c3 quadruplicates them,
	// so the size factors must be 1/2, 1, and 2.
	vals := map[string][]int64{
		"g1": {10, 20, 40},
		"g2": {25, 50, 100},
		"g3": {100, 200, 400},
	}
	m := newMatrix(t, genes, cells, vals)

	sf, err := norm.MedianRatio(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}

	want := map[string]float64{
		"c1": 0.5,
		"c2": 1,
		"c3": 2,
	}
	for c, w := range want {
		if f := sf[c]; math.Abs(f-w) > 0.000001 {
			t.Errorf("size factor of %q: got %.6f, want %.6f", c, f, w)
		}
	}
}

func TestMedianRatioSkipZeros(t *testing.T) {
	genes := []string{"g1", "g2", "g3", "zero"}
	cells := []string{"c1", "c2"}

	// gene "zero" has no reads on c1,
	// and must be ignored:
	// the factors are 1/sqrt(2) and sqrt(2).
	vals := map[string][]int64{
		"g1":   {10, 20},
		"g2":   {25, 50},
		"g3":   {100, 200},
		"zero": {0, 1000},
	}
	m := newMatrix(t, genes, cells, vals)

	sf, err := norm.MedianRatio(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}

	want := map[string]float64{
		"c1": 1 / math.Sqrt2,
		"c2": math.Sqrt2,
	}
	for c, w := range want {
		if f := sf[c]; math.Abs(f-w) > 0.000001 {
			t.Errorf("size factor of %q: got %.6f, want %.6f", c, f, w)
		}
	}
}

func TestMedianRatioErr(t *testing.T) {
	genes := []string{"g1", "g2"}
	cells := []string{"c1", "c2"}

	// every gene has a cell without reads
	vals := map[string][]int64{
		"g1": {10, 0},
		"g2": {0, 10},
	}
	m := newMatrix(t, genes, cells, vals)

	if _, err := norm.MedianRatio(m); err == nil {
		t.Errorf("expecting error without usable genes")
	}
}

func TestUpperQuartile(t *testing.T) {
	genes := []string{"g1", "g2", "g3", "g4", "g5"}
	cells := []string{"c1", "c2"}

	// cell c2 duplicates the counts of c1:
	// as the factors are relative to the library size,
	// both cells must have a factor of one.
	vals := map[string][]int64{
		"g1": {10, 20},
		"g2": {25, 50},
		"g3": {0, 0},
		"g4": {40, 80},
		"g5": {100, 200},
	}
	m := newMatrix(t, genes, cells, vals)

	sf, err := norm.UpperQuartile(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}

	for _, c := range cells {
		if f := sf[c]; math.Abs(f-1) > 0.000001 {
			t.Errorf("size factor of %q: got %.6f, want %.6f", c, f, 1.0)
		}
	}
}

func TestUpperQuartileScale(t *testing.T) {
	genes := []string{"g1", "g2", "g3", "g4", "g5"}
	cells := []string{"c1", "c2"}

	// in c2 most reads move to gene g5,
	// so the upper quartile of c2
	// is smaller relative to its library size
	vals := map[string][]int64{
		"g1": {10, 10},
		"g2": {25, 25},
		"g3": {30, 30},
		"g4": {40, 40},
		"g5": {100, 1000},
	}
	m := newMatrix(t, genes, cells, vals)

	sf, err := norm.UpperQuartile(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}

	if sf["c2"] >= sf["c1"] {
		t.Errorf("size factors: factor of %q (%.6f) should be smaller than factor of %q (%.6f)", "c2", sf["c2"], "c1", sf["c1"])
	}

	// factors are scaled to a geometric mean of one
	prod := sf["c1"] * sf["c2"]
	if math.Abs(prod-1) > 0.000001 {
		t.Errorf("size factors: product: got %.6f, want %.6f", prod, 1.0)
	}
}

func TestSingleCell(t *testing.T) {
	genes := []string{"g1", "g2"}
	cells := []string{"c1"}
	vals := map[string][]int64{
		"g1": {10},
		"g2": {25},
	}
	m := newMatrix(t, genes, cells, vals)

	sf, err := norm.MedianRatio(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}
	if f := sf["c1"]; f != 1 {
		t.Errorf("median ratio factor of a single cell: got %.6f, want 1", f)
	}

	sf, err = norm.UpperQuartile(m)
	if err != nil {
		t.Fatalf("unable to estimate size factors: %v", err)
	}
	if f := sf["c1"]; f != 1 {
		t.Errorf("upper quartile factor of a single cell: got %.6f, want 1", f)
	}
}
