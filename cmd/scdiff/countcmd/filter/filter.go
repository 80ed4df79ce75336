// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package filter implements a command to remove
// poor cells and genes
// from the count matrix of an scdiff project.
package filter

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `filter [--lib-size <number>] [--reads <number>]
	[--detected <number>] [-f|--file <count-file>]
	<project-file>`,
	Short: "filter the count matrix of a project",
	Long: `
Command filter reads the count matrix of an scdiff project and removes the
cells and genes without enough reads.

The argument of the command is the name of the project file.

A cell is kept only if its library size (the sum of the reads of all genes on
the cell) is greater than the threshold defined with the flag --lib-size. By
default, the threshold is 1800 reads.

A gene is kept only if its reads, summed over all kept cells, are greater
than the threshold defined with the flag --reads, and if it is detected (one
read or more) in more cells than the threshold defined with the flag
--detected. By default, a gene requires more than 10 reads and detection in
more than 5 cells.

As removing a gene reduces the library sizes, the filter is repeated until no
cell or gene is removed, so the resulting matrix is stable under the same
thresholds.

By default, the filtered counts will be stored in the file
'filtered-counts.tab'; the file name can be changed with the flag --file or
-f. The file will be used as the count matrix of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var libSize int64
var minReads int64
var minDetected int
var outFile string

func setFlags(c *command.Command) {
	def := counts.DefaultFilter()
	c.Flags().Int64Var(&libSize, "lib-size", def.MinLibSize, "")
	c.Flags().Int64Var(&minReads, "reads", def.MinReads, "")
	c.Flags().IntVar(&minDetected, "detected", def.MinDetected, "")
	c.Flags().StringVar(&outFile, "file", "filtered-counts.tab", "")
	c.Flags().StringVar(&outFile, "f", "filtered-counts.tab", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	m, err := p.Counts()
	if err != nil {
		return err
	}

	f := m.Filter(counts.FilterParam{
		MinLibSize:  libSize,
		MinReads:    minReads,
		MinDetected: minDetected,
	})
	fmt.Fprintf(c.Stdout(), "cells: %d of %d\n", len(f.Cells()), len(m.Cells()))
	fmt.Fprintf(c.Stdout(), "genes: %d of %d\n", len(f.Genes()), len(m.Genes()))

	if err := writeCounts(outFile, f); err != nil {
		return err
	}

	if p.Path(project.Counts) != outFile {
		p.Add(project.Counts, outFile)
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

func writeCounts(name string, m *counts.Matrix) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := m.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
