// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package cells

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadTSV reads a group assignment
// for a set of cells
// from a TSV file.
//
// The TSV file must contain the following fields:
//
//   - cell, the identifier of the cell
//   - group, the name of the assigned group
//
// Here is an example file:
//
//	cell	group
//	ESC.1	ESC
//	ESC.2	ESC
//	MEF.1	MEF
//	MEF.2	MEF
func ReadTSV(r io.Reader) (*Groups, error) {
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
	for _, h := range []string{"cell", "group"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	g := New()
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
		gr := row[fields[f]]
		gr = strings.Join(strings.Fields(gr), " ")
		if gr == "" {
			continue
		}

		g.Add(cell, gr)
	}
	return g, nil
}

// TSV writes a group assignment as a TSV file.
func (g *Groups) TSV(w io.Writer) error {
	tab := csv.NewWriter(w)
	tab.Comma = '\t'
	tab.UseCRLF = true

	// header
	header := []string{"cell", "group"}
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("unable to write header: %v", err)
	}

	for _, gr := range g.Groups() {
		for _, c := range g.GroupCells(gr) {
			row := []string{
				c,
				gr,
			}
			if err := tab.Write(row); err != nil {
				return fmt.Errorf("when writing data: %v", err)
			}
		}
	}

	tab.Flush()
	if err := tab.Error(); err != nil {
		return fmt.Errorf("when writing data: %v", err)
	}
	return nil
}
