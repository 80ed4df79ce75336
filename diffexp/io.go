// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package diffexp

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

// ReadTSV reads a differential expression table
// from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - gene, the identifier of the gene
//   - diff, the observed difference of the group means
//   - z, the randomization score
//   - p, the two sided p-value
//   - padj, the corrected p-value
//   - cz, the corrected score
//
// Here is an example file:
//
//	# differential expression
//	gene	diff	z	p	padj	cz
//	Dppa5	4.512231	3.812311	0.000137	0.000549	3.457812
//	Pou5f1	3.981121	3.101211	0.001930	0.003860	2.886791
//	Thy1	-4.105221	-3.551201	0.000383	0.001149	-3.047891
func ReadTSV(r io.Reader) (*Table, error) {
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
	for _, h := range []string{"gene", "diff", "z", "p", "padj", "cz"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	tb := &Table{
		geneID: make(map[string]int),
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

		f := "gene"
		gene := row[fields[f]]
		gene = strings.Join(strings.Fields(gene), " ")
		if gene == "" {
			continue
		}
		if _, dup := tb.geneID[gene]; dup {
			return nil, fmt.Errorf("on row %d: gene %q repeated", ln, gene)
		}

		rw := Result{Gene: gene}

		f = "diff"
		rw.Diff, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "z"
		rw.Z, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		f = "p"
		rw.P, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if rw.P < 0 || rw.P > 1 || math.IsNaN(rw.P) {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %.6f", ln, f, rw.P)
		}

		f = "padj"
		rw.AdjP, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}
		if rw.AdjP < 0 || rw.AdjP > 1 || math.IsNaN(rw.AdjP) {
			return nil, fmt.Errorf("on row %d: field %q: invalid value %.6f", ln, f, rw.AdjP)
		}

		f = "cz"
		rw.CZ, err = strconv.ParseFloat(row[fields[f]], 64)
		if err != nil {
			return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
		}

		tb.geneID[gene] = len(tb.rows)
		tb.rows = append(tb.rows, rw)
	}
	return tb, nil
}

// TSV writes a differential expression table
// as a TSV file.
func (tb *Table) TSV(w io.Writer) error {
	fmt.Fprintf(w, "# differential expression\n")
	fmt.Fprintf(w, "# genes: %d\n", len(tb.rows))
	fmt.Fprintf(w, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	// header
	header := []string{"gene", "diff", "z", "p", "padj", "cz"}
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for _, rw := range tb.rows {
		row := []string{
			rw.Gene,
			strconv.FormatFloat(rw.Diff, 'f', 6, 64),
			strconv.FormatFloat(rw.Z, 'f', 6, 64),
			strconv.FormatFloat(rw.P, 'f', 15, 64),
			strconv.FormatFloat(rw.AdjP, 'f', 15, 64),
			strconv.FormatFloat(rw.CZ, 'f', 6, 64),
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
