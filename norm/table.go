// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package norm

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// A Table is a collection of size factors,
// with one row per cell
// and one column per estimation method.
type Table struct {
	methods  []string
	methodID map[string]int

	cells  []string
	cellID map[string]int

	vals [][]float64
}

// NewTable creates a new empty table
// for the given estimation methods.
func NewTable(methods []string) (*Table, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("expecting estimation methods")
	}

	tb := &Table{
		methods:  make([]string, 0, len(methods)),
		methodID: make(map[string]int, len(methods)),
	}
	for _, m := range methods {
		if m == "" {
			return nil, fmt.Errorf("empty method name")
		}
		if _, dup := tb.methodID[m]; dup {
			return nil, fmt.Errorf("method %q: repeated name", m)
		}
		tb.methodID[m] = len(tb.methods)
		tb.methods = append(tb.methods, m)
	}
	tb.cellID = make(map[string]int)
	return tb, nil
}

// Add adds the size factors of a cell,
// one value per method,
// in method order.
func (tb *Table) Add(cell string, factors []float64) error {
	if cell == "" {
		return fmt.Errorf("empty cell identifier")
	}
	if _, dup := tb.cellID[cell]; dup {
		return fmt.Errorf("cell %q: repeated identifier", cell)
	}
	if len(factors) != len(tb.methods) {
		return fmt.Errorf("cell %q: got %d factors, want %d", cell, len(factors), len(tb.methods))
	}
	for i, v := range factors {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("cell %q: method %q: invalid size factor %.6f", cell, tb.methods[i], v)
		}
	}

	tb.cellID[cell] = len(tb.cells)
	tb.cells = append(tb.cells, cell)
	tb.vals = append(tb.vals, slices.Clone(factors))
	return nil
}

// Cells returns the cell identifiers,
// in table order.
func (tb *Table) Cells() []string {
	return slices.Clone(tb.cells)
}

// Column returns the size factors of a method
// on all cells,
// in table order.
func (tb *Table) Column(method string) []float64 {
	m, ok := tb.methodID[method]
	if !ok {
		return nil
	}

	col := make([]float64, len(tb.cells))
	for i := range tb.cells {
		col[i] = tb.vals[i][m]
	}
	return col
}

// Methods returns the estimation methods of the table,
// in table order.
func (tb *Table) Methods() []string {
	return slices.Clone(tb.methods)
}

// Value returns the size factor of a cell
// under the given estimation method.
func (tb *Table) Value(cell, method string) float64 {
	c, ok := tb.cellID[cell]
	if !ok {
		return 0
	}
	m, ok := tb.methodID[method]
	if !ok {
		return 0
	}
	return tb.vals[c][m]
}

// ReadTable reads a size factor table
// from a TSV file.
//
// The TSV file must contain a field "cell"
// with the cell identifier;
// any other field is read as an estimation method.
//
// Here is an example file:
//
//	# size factors
//	cell	grouped	pooled	ratio
//	ESC.1	1.335022	1.364285	1.329761
//	ESC.2	0.726154	0.718519	0.730828
//	MEF.1	1.031469	1.028156	1.035947
func ReadTable(r io.Reader) (*Table, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	var methods []string
	cellF := -1
	for i, h := range head {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "cell" {
			cellF = i
			continue
		}
		methods = append(methods, h)
	}
	if cellF < 0 {
		return nil, fmt.Errorf("expecting field %q", "cell")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("expecting size factor fields")
	}

	tb, err := NewTable(methods)
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		cell := row[cellF]
		factors := make([]float64, 0, len(methods))
		for i, h := range head {
			if i == cellF {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d: field %q: %v", ln, h, err)
			}
			factors = append(factors, v)
		}
		if err := tb.Add(cell, factors); err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}
	}
	if len(tb.cells) == 0 {
		return nil, fmt.Errorf("while reading data: %v", io.EOF)
	}
	return tb, nil
}

// TSV writes a size factor table
// to a TSV file.
func (tb *Table) TSV(w io.Writer) error {
	fmt.Fprintf(w, "# size factors\n")
	fmt.Fprintf(w, "# cells: %d\n", len(tb.cells))
	fmt.Fprintf(w, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	out := csv.NewWriter(w)
	out.Comma = '\t'
	out.UseCRLF = true

	header := append([]string{"cell"}, tb.methods...)
	if err := out.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	for i, c := range tb.cells {
		row := make([]string, 0, len(tb.methods)+1)
		row = append(row, c)
		for _, v := range tb.vals[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("while writing data: %v", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}
