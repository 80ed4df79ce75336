// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sim implements a command to simulate
// a single cell RNA-seq dataset.
package sim

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/project"
	"github.com/js-arias/scdiff/simdata"
)

var Command = &command.Command{
	Usage: `sim [--genes <number>] [--cells <number>]
	[--groups <names>] [--fraction <value>] [--change <value>]
	[--dropout <value>] [--seed <number>]
	[-o|--output <file-prefix>] <project-file>`,
	Short: "simulate a single cell dataset",
	Long: `
Command sim creates a random single cell RNA-seq dataset with two groups of
cells and a known set of differentially expressed genes, and stores it in an
scdiff project.

The argument of the command is the name of the project file. If the project
file does not exist, a new project will be created.

By default, the dataset has 500 genes (defined with the flag --genes) and 20
cells on each group (defined with the flag --cells). The groups are named
"ESC" and "MEF"; other names can be given with the flag --groups as a
comma-separated list of two names.

A fraction of the genes (by default 0.10, defined with the flag --fraction)
is simulated with a different expression between the two groups, with an
expression ratio defined with the flag --change (by default, 8). The
direction of the change alternates between the groups, so about half of the
differential genes are up-regulated on each group. Each gene-cell pair can be
hit by a dropout event (by default with probability 0.05, defined with the
flag --dropout).

The simulation is reproducible: running the command again with the same
--seed value (by default, 1) gives the same dataset.

The counts and the groups are stored in the files '<prefix>-counts.tab' and
'<prefix>-groups.tab'; by default the prefix is "sim", and it can be changed
with the flag --output or -o. The files are set as the count and group
datasets of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var numGenes int
var numCells int
var groupsFlag string
var fraction float64
var change float64
var dropout float64
var seed uint64
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numGenes, "genes", 500, "")
	c.Flags().IntVar(&numCells, "cells", 20, "")
	c.Flags().StringVar(&groupsFlag, "groups", "", "")
	c.Flags().Float64Var(&fraction, "fraction", simdata.DefaultDiffFraction, "")
	c.Flags().Float64Var(&change, "change", simdata.DefaultFoldChange, "")
	c.Flags().Float64Var(&dropout, "dropout", simdata.DefaultDropout, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
	c.Flags().StringVar(&output, "output", "sim", "")
	c.Flags().StringVar(&output, "o", "sim", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	param := simdata.Param{
		Genes:         numGenes,
		CellsPerGroup: numCells,
		DiffFraction:  fraction,
		FoldChange:    change,
		Dropout:       dropout,
	}
	if groupsFlag != "" {
		gs := strings.Split(groupsFlag, ",")
		if len(gs) != 2 {
			return c.UsageError("expecting two group names, flag --groups")
		}
		param.Groups[0] = strings.TrimSpace(gs[0])
		param.Groups[1] = strings.TrimSpace(gs[1])
	}

	rng := rand.New(rand.NewPCG(seed, 0))
	m, g, err := simdata.Matrix(rng, param)
	if err != nil {
		return err
	}

	dg, err := simdata.DiffGenes(param)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "genes: %d (%d differential)\n", len(m.Genes()), len(dg))
	for _, gr := range g.Groups() {
		fmt.Fprintf(c.Stdout(), "%s: %d cells\n", gr, len(g.GroupCells(gr)))
	}

	p, err := openProject(args[0])
	if err != nil {
		return err
	}

	cF := fmt.Sprintf("%s-counts.tab", output)
	if err := writeCounts(cF, m); err != nil {
		return err
	}
	gF := fmt.Sprintf("%s-groups.tab", output)
	if err := writeGroups(gF, g); err != nil {
		return err
	}

	p.Add(project.Counts, cF)
	p.Add(project.Groups, gF)
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func openProject(name string) (*project.Project, error) {
	if _, err := os.Stat(name); err == nil {
		return project.Read(name)
	}
	p := project.New()
	p.SetName(name)
	return p, nil
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

func writeGroups(name string, g *cells.Groups) (err error) {
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

	if err := g.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
