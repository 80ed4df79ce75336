// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package express implements a command to compute
// the normalized expression magnitudes
// of an scdiff project.
package express

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `express [--models <set>] [--plot <file-prefix>]
	[-f|--file <expression-file>] <project-file>`,
	Short: "compute the expression magnitudes of a project",
	Long: `
Command express reads the count matrix and the error models of an scdiff
project and computes the normalized expression magnitude of each gene on
each cell.

The argument of the command is the name of the project file.

The magnitude of a gene is the count of the gene corrected by the slope and
the size factor of the error model of its cell; a gene without reads has a
magnitude of zero. Cells with an invalid error model are removed from the
output.

By default, the models fitted with the cell groups are used; define the flag
--models as "pooled" to use the models fitted with all cells pooled.

For each cell, the library size and the adjusted total expression are printed
to the standard output.

If the flag --plot is defined, a box plot with the distribution of the
per-cell totals, for the raw counts and for each fitted model set, grouped by
cell group, will be saved as a PNG file using the indicated prefix.

By default, the magnitudes will be stored in the file 'express.tab'; the
file name can be changed with the flag --file or -f. The file will be used
as the expression dataset of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var modelsFlag string
var plotPrefix string
var outFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&modelsFlag, "models", "grouped", "")
	c.Flags().StringVar(&plotPrefix, "plot", "", "")
	c.Flags().StringVar(&outFile, "file", "express.tab", "")
	c.Flags().StringVar(&outFile, "f", "express.tab", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	set := project.ModelsGrouped
	switch modelsFlag {
	case "grouped":
	case "pooled":
		set = project.ModelsPooled
	default:
		return c.UsageError(fmt.Sprintf("invalid model set %q", modelsFlag))
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	m, err := p.Counts()
	if err != nil {
		return err
	}
	ms, err := p.Models(set)
	if err != nil {
		return err
	}

	valid := ms.Valid()
	sub, err := modelCells(m, valid)
	if err != nil {
		return err
	}

	e, err := valid.Magnitude(sub)
	if err != nil {
		return err
	}

	for _, id := range e.Cells() {
		var sum float64
		for _, g := range e.Genes() {
			sum += e.Value(g, id)
		}
		fmt.Fprintf(c.Stdout(), "%s\t%d\t%.2f\n", id, sub.LibSize(id), sum)
	}

	if err := writeExpression(outFile, e); err != nil {
		return err
	}

	if p.Path(project.Express) != outFile {
		p.Add(project.Express, outFile)
		if err := p.Write(); err != nil {
			return err
		}
	}

	if plotPrefix != "" {
		if err := plotTotals(p, m, set, ms); err != nil {
			return err
		}
	}
	return nil
}

// PlotTotals draws the per-cell totals
// of the raw counts
// and of the expression magnitudes
// of each model dataset of the project.
func plotTotals(p *project.Project, m *counts.Matrix, set project.Dataset, ms *errmod.Models) error {
	var g *cells.Groups
	if p.Path(project.Groups) != "" {
		var err error
		g, err = p.Groups()
		if err != nil {
			return err
		}
	}

	raw := make(map[string]float64, len(m.Cells()))
	for _, id := range m.Cells() {
		raw[id] = float64(m.LibSize(id))
	}
	cols := []totalsColumn{{label: "raw", totals: raw}}

	for _, s := range []project.Dataset{project.ModelsGrouped, project.ModelsPooled} {
		if p.Path(s) == "" {
			continue
		}
		sm := ms
		if s != set {
			var err error
			sm, err = p.Models(s)
			if err != nil {
				return err
			}
		}
		label := "grouped"
		if s == project.ModelsPooled {
			label = "pooled"
		}
		col, err := adjustedTotals(label, sm.Valid(), m)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}

	return totalsPlot(fmt.Sprintf("%s-totals.png", plotPrefix), g, cols)
}

// AdjustedTotals returns the per-cell totals
// of the expression magnitudes
// under a set of error models.
func adjustedTotals(label string, ms *errmod.Models, m *counts.Matrix) (totalsColumn, error) {
	sub, err := modelCells(m, ms)
	if err != nil {
		return totalsColumn{}, err
	}
	e, err := ms.Magnitude(sub)
	if err != nil {
		return totalsColumn{}, err
	}

	totals := make(map[string]float64, len(e.Cells()))
	for _, id := range e.Cells() {
		var sum float64
		for _, gene := range e.Genes() {
			sum += e.Value(gene, id)
		}
		totals[id] = sum
	}
	return totalsColumn{label: label, totals: totals}, nil
}

// ModelCells returns a matrix
// with the cells that have a valid error model.
func modelCells(m *counts.Matrix, ms *errmod.Models) (*counts.Matrix, error) {
	var ids []string
	for _, id := range m.Cells() {
		if _, ok := ms.Model(id); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no cell with a valid error model")
	}
	if len(ids) == len(m.Cells()) {
		return m, nil
	}

	sub, err := counts.New(m.Genes(), ids)
	if err != nil {
		return nil, err
	}
	for _, g := range m.Genes() {
		for _, id := range ids {
			if err := sub.Set(g, id, m.Count(g, id)); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

func writeExpression(name string, exp *errmod.Expression) (err error) {
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

	if err := exp.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
