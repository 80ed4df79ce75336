// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package counts

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReadTSV reads a count matrix from a TSV file.
//
// The first field of the header must be "gene",
// and the rest of the fields are the cell identifiers.
// Each row contains the identifier of a gene
// and the number of reads of that gene
// on each cell.
//
// Here is an example file:
//
//	# single cell read counts
//	gene	ESC.1	ESC.2	MEF.1	MEF.2
//	Dppa5	324	102	0	0
//	Pou5f1	581	444	0	3
//	Thy1	0	2	425	288
//	Actb	502	602	890	710
func ReadTSV(r io.Reader) (*Matrix, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("header: expecting at least one cell")
	}
	if f := strings.ToLower(strings.TrimSpace(head[0])); f != "gene" {
		return nil, fmt.Errorf("header: expecting field %q, got %q", "gene", head[0])
	}

	cells := make([]string, 0, len(head)-1)
	for _, c := range head[1:] {
		cells = append(cells, strings.TrimSpace(c))
	}

	var genes []string
	var rows [][]int64
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		g := strings.TrimSpace(row[0])
		cnt := make([]int64, len(cells))
		for i, f := range row[1:] {
			v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("on row %d: cell %q: %v", ln, cells[i], err)
			}
			if v < 0 {
				return nil, fmt.Errorf("on row %d: cell %q: negative count %d", ln, cells[i], v)
			}
			cnt[i] = v
		}
		genes = append(genes, g)
		rows = append(rows, cnt)
	}

	m, err := New(genes, cells)
	if err != nil {
		return nil, err
	}
	for i := range genes {
		copy(m.counts[i], rows[i])
	}
	return m, nil
}

// TSV writes a count matrix to a TSV file.
func (m *Matrix) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# single cell read counts\n")
	fmt.Fprintf(bw, "# genes: %d, cells: %d\n", len(m.genes), len(m.cells))
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	header := append([]string{"gene"}, m.cells...)
	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}

	row := make([]string, len(m.cells)+1)
	for i, g := range m.genes {
		row[0] = g
		for j := range m.cells {
			row[j+1] = strconv.FormatInt(m.counts[i][j], 10)
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("when writing data: %v", err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
