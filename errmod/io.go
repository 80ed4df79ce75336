// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package errmod

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ReadTSV reads a collection of cell error models
// from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - cell, the identifier of the cell
//   - group, the group used to fit the model
//   - slope, of the correlated component
//   - intercept, of the correlated component
//   - dropout, the dropout probability
//   - sd, the residual standard deviation
//
// Here is an example file:
//
//	# single cell error models
//	cell	group	slope	intercept	dropout	sd
//	ESC.1	ESC	1.043182	2.351212	0.091021	0.589011
//	ESC.2	ESC	0.985323	2.105411	0.102523	0.612345
//	MEF.1	MEF	1.110231	2.409921	0.055213	0.498712
func ReadTSV(r io.Reader) (*Models, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range []string{"cell", "group", "slope", "intercept", "dropout", "sd"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	ms := New()
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		f := "cell"
		cell := row[fields[f]]
		cell = strings.Join(strings.Fields(cell), " ")
		if cell == "" {
			continue
		}

		f = "group"
		group := row[fields[f]]
		group = strings.Join(strings.Fields(group), " ")

		f = "slope"
		slope, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "intercept"
		intercept, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "dropout"
		dropout, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if dropout < 0 || dropout > 1 || math.IsNaN(dropout) {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %.6f", ln, f, dropout)
		}

		f = "sd"
		sd, err := strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if sd < 0 || math.IsNaN(sd) {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %.6f", ln, f, sd)
		}

		m := Model{
			Cell:      cell,
			Group:     group,
			Slope:     slope,
			Intercept: intercept,
			Dropout:   dropout,
			SD:        sd,
		}
		if err := ms.Add(m); err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
	}
	return ms, nil
}

// TSV writes a collection of cell error models
// as a TSV file.
func (ms *Models) TSV(w io.Writer) error {
	fmt.Fprintf(w, "# single cell error models\n")
	fmt.Fprintf(w, "# cells: %d\n", len(ms.cell))
	fmt.Fprintf(w, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	// header
	header := []string{"cell", "group", "slope", "intercept", "dropout", "sd"}
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for _, c := range ms.Cells() {
		m := ms.cell[c]
		row := []string{
			m.Cell,
			m.Group,
			strconv.FormatFloat(m.Slope, 'f', 6, 64),
			strconv.FormatFloat(m.Intercept, 'f', 6, 64),
			strconv.FormatFloat(m.Dropout, 'f', 6, 64),
			strconv.FormatFloat(m.SD, 'f', 6, 64),
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}

// ReadExpression reads a matrix of expression magnitudes
// from a TSV file.
//
// The first column of the file must be "gene",
// with the gene identifiers,
// and any other column
// is the magnitude of the genes
// on the cell named by the column.
//
// Here is an example file:
//
//	# expression magnitudes
//	gene	ESC.1	ESC.2	MEF.1
//	Dppa5	245.120021	89.231123	0.000000
//	Pou5f1	501.552138	367.010299	0.000000
//	Thy1	0.000000	1.551201	388.441201
func ReadExpression(r io.Reader) (*Expression, error) {
	tab := csv.NewReader(r)
	tab.Comma = '\t'
	tab.Comment = '#'

	head, err := tab.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("while reading header: expecting cell columns")
	}
	if strings.ToLower(head[0]) != "gene" {
		return nil, fmt.Errorf("expecting field %q", "gene")
	}
	cs := make([]string, len(head)-1)
	cellID := make(map[string]int, len(cs))
	for i, c := range head[1:] {
		c = strings.Join(strings.Fields(c), " ")
		if c == "" {
			return nil, fmt.Errorf("while reading header: column %d: expecting cell identifier", i+2)
		}
		if _, dup := cellID[c]; dup {
			return nil, fmt.Errorf("while reading header: cell %q repeated", c)
		}
		cs[i] = c
		cellID[c] = i
	}

	e := &Expression{
		geneID: make(map[string]int),
		cells:  cs,
		cellID: cellID,
	}
	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		g := strings.Join(strings.Fields(row[0]), " ")
		if g == "" {
			continue
		}
		if _, dup := e.geneID[g]; dup {
			return nil, fmt.Errorf("on row %d: gene %q repeated", ln, g)
		}

		vals := make([]float64, len(cs))
		for i, c := range cs {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d: cell %q: %v", ln, c, err)
			}
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("on row %d: cell %q: invalid value %.6f", ln, c, v)
			}
			vals[i] = v
		}
		e.geneID[g] = len(e.genes)
		e.genes = append(e.genes, g)
		e.vals = append(e.vals, vals)
	}
	return e, nil
}

// TSV writes a matrix of expression magnitudes
// as a TSV file.
func (e *Expression) TSV(w io.Writer) error {
	fmt.Fprintf(w, "# expression magnitudes\n")
	fmt.Fprintf(w, "# genes: %d, cells: %d\n", len(e.genes), len(e.cells))
	fmt.Fprintf(w, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	// header
	header := make([]string, 0, len(e.cells)+1)
	header = append(header, "gene")
	header = append(header, e.cells...)
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for i, g := range e.genes {
		row := make([]string, 0, len(e.cells)+1)
		row = append(row, g)
		for _, v := range e.vals[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
