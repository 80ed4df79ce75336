// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package errmod_test

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/errmod"
)

var testModels = []errmod.Model{
	{
		Cell:      "ESC.1",
		Group:     "ESC",
		Slope:     1.043182,
		Intercept: 2.351212,
		Dropout:   0.091021,
		SD:        0.589011,
	},
	{
		Cell:      "ESC.2",
		Group:     "ESC",
		Slope:     0.985323,
		Intercept: 2.105411,
		Dropout:   0.102523,
		SD:        0.612345,
	},
	{
		Cell:      "MEF.1",
		Group:     "MEF",
		Slope:     1.110231,
		Intercept: 2.409921,
		Dropout:   0.055213,
		SD:        0.498712,
	},
}

func newModels(t testing.TB) *errmod.Models {
	t.Helper()

	ms := errmod.New()
	for _, m := range testModels {
		if err := ms.Add(m); err != nil {
			t.Fatalf("unable to add model: %v", err)
		}
	}
	return ms
}

func testModelsSet(t testing.TB, name string, ms *errmod.Models) {
	t.Helper()

	cs := []string{"ESC.1", "ESC.2", "MEF.1"}
	if c := ms.Cells(); !reflect.DeepEqual(c, cs) {
		t.Errorf("%s: cells: got %v, want %v", name, c, cs)
	}

	for _, w := range testModels {
		m, ok := ms.Model(w.Cell)
		if !ok {
			t.Errorf("%s: cell %q: model not found", name, w.Cell)
			continue
		}
		if m != w {
			t.Errorf("%s: cell %q: got %v, want %v", name, w.Cell, m, w)
		}
	}
}

func TestModels(t *testing.T) {
	ms := newModels(t)
	testModelsSet(t, "models", ms)

	if err := ms.Add(errmod.Model{Group: "ESC"}); err == nil {
		t.Errorf("expecting error when adding a model without a cell")
	}

	g := ms.Groups()
	if v := g.Groups(); !reflect.DeepEqual(v, []string{"ESC", "MEF"}) {
		t.Errorf("groups: got %v, want %v", v, []string{"ESC", "MEF"})
	}
	if c := g.GroupCells("ESC"); !reflect.DeepEqual(c, []string{"ESC.1", "ESC.2"}) {
		t.Errorf("groups: cells of %q: got %v, want %v", "ESC", c, []string{"ESC.1", "ESC.2"})
	}

	sf := ms.SizeFactors()
	for _, m := range testModels {
		want := math.Exp(m.Intercept)
		if got := sf[m.Cell]; math.Abs(got-want) > 0.000001 {
			t.Errorf("size factor of %q: got %.6f, want %.6f", m.Cell, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	ms := newModels(t)
	bad := errmod.Model{
		Cell:  "MEF.bad",
		Group: "MEF",
		Slope: -0.120013,
	}
	if err := ms.Add(bad); err != nil {
		t.Fatalf("unable to add model: %v", err)
	}
	if bad.Valid() {
		t.Errorf("model with a non-positive slope should be invalid")
	}

	v := ms.Valid()
	cs := []string{"ESC.1", "ESC.2", "MEF.1"}
	if c := v.Cells(); !reflect.DeepEqual(c, cs) {
		t.Errorf("valid cells: got %v, want %v", c, cs)
	}
}

func TestTSV(t *testing.T) {
	ms := newModels(t)

	var w bytes.Buffer
	if err := ms.TSV(&w); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}
	t.Logf("output:\n%s\n", w.String())

	nm, err := errmod.ReadTSV(strings.NewReader(w.String()))
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}
	testModelsSet(t, "tsv", nm)
}

func TestReadTSVErrors(t *testing.T) {
	bad := map[string]string{
		"header":  "cell\tgroup\tslope\tintercept\tdropout\n",
		"slope":   "cell\tgroup\tslope\tintercept\tdropout\tsd\nESC.1\tESC\tone\t2.35\t0.09\t0.58\n",
		"dropout": "cell\tgroup\tslope\tintercept\tdropout\tsd\nESC.1\tESC\t1.04\t2.35\t1.5\t0.58\n",
		"sd":      "cell\tgroup\tslope\tintercept\tdropout\tsd\nESC.1\tESC\t1.04\t2.35\t0.09\t-0.58\n",
	}
	for name, data := range bad {
		if _, err := errmod.ReadTSV(strings.NewReader(data)); err == nil {
			t.Errorf("%s: expecting error", name)
		}
	}
}

func TestMagnitude(t *testing.T) {
	genes := []string{"Dppa5", "Thy1"}
	cs := []string{"ESC.1", "ESC.2", "MEF.1"}
	cnt, err := counts.New(genes, cs)
	if err != nil {
		t.Fatalf("unable to create matrix: %v", err)
	}
	vals := map[string][]int64{
		"Dppa5": {324, 102, 0},
		"Thy1":  {0, 2, 425},
	}
	for g, row := range vals {
		for i, c := range cs {
			if err := cnt.Set(g, c, row[i]); err != nil {
				t.Fatalf("unable to set count: %v", err)
			}
		}
	}

	ms := newModels(t)
	e, err := ms.Magnitude(cnt)
	if err != nil {
		t.Fatalf("unable to estimate magnitudes: %v", err)
	}

	if g := e.Genes(); !reflect.DeepEqual(g, genes) {
		t.Errorf("magnitude: genes: got %v, want %v", g, genes)
	}
	if c := e.Cells(); !reflect.DeepEqual(c, cs) {
		t.Errorf("magnitude: cells: got %v, want %v", c, cs)
	}

	for g, row := range vals {
		for i, c := range cs {
			m, _ := ms.Model(c)
			var want float64
			if row[i] > 0 {
				want = math.Exp((math.Log(float64(row[i])) - m.Intercept) / m.Slope)
			}
			if got := e.Value(g, c); math.Abs(got-want) > 0.000001 {
				t.Errorf("magnitude of %q on %q: got %.6f, want %.6f", g, c, got, want)
			}
		}
	}

	// a cell without a model
	nc, err := counts.New(genes, []string{"ESC.1", "NPC.1"})
	if err != nil {
		t.Fatalf("unable to create matrix: %v", err)
	}
	if _, err := ms.Magnitude(nc); err == nil {
		t.Errorf("expecting error with a cell without model")
	}
}

func TestExpressionTSV(t *testing.T) {
	genes := []string{"Dppa5", "Thy1"}
	cs := []string{"ESC.1", "ESC.2", "MEF.1"}
	cnt, err := counts.New(genes, cs)
	if err != nil {
		t.Fatalf("unable to create matrix: %v", err)
	}
	vals := map[string][]int64{
		"Dppa5": {324, 102, 0},
		"Thy1":  {0, 2, 425},
	}
	for g, row := range vals {
		for i, c := range cs {
			if err := cnt.Set(g, c, row[i]); err != nil {
				t.Fatalf("unable to set count: %v", err)
			}
		}
	}

	ms := newModels(t)
	e, err := ms.Magnitude(cnt)
	if err != nil {
		t.Fatalf("unable to estimate magnitudes: %v", err)
	}

	var w bytes.Buffer
	if err := e.TSV(&w); err != nil {
		t.Fatalf("unable to write TSV data: %v", err)
	}
	t.Logf("output:\n%s\n", w.String())

	ne, err := errmod.ReadExpression(strings.NewReader(w.String()))
	if err != nil {
		t.Fatalf("unable to read TSV data: %v", err)
	}

	if g := ne.Genes(); !reflect.DeepEqual(g, e.Genes()) {
		t.Errorf("tsv: genes: got %v, want %v", g, e.Genes())
	}
	if c := ne.Cells(); !reflect.DeepEqual(c, e.Cells()) {
		t.Errorf("tsv: cells: got %v, want %v", c, e.Cells())
	}
	for _, g := range e.Genes() {
		for _, c := range e.Cells() {
			if got, want := ne.Value(g, c), e.Value(g, c); math.Abs(got-want) > 0.000001 {
				t.Errorf("tsv: magnitude of %q on %q: got %.6f, want %.6f", g, c, got, want)
			}
		}
	}
}
