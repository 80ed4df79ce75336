// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package batch implements a command to run
// the differential expression test
// with a batch confounded with the cell groups.
package batch

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/prior"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `batch [--models <set>] [--trials <number>]
	[--seed <number>] [--cpu <number>]
	[-f|--file <diff-file>] <project-file>`,
	Short: "test with a batch confounded with the groups",
	Long: `
Command batch runs the differential expression test of an scdiff project
using the cell groups themselves as the batch of each cell.

The argument of the command is the name of the project file.

When a batch is defined, the expression values of each gene are centered on
the mean of the batch before the comparison. As here the batch is identical
to the groups, the centering removes the difference between the groups, and
all the resulting scores collapse to zero. The command is a diagnostic
demonstration: when an experimental batch is completely confounded with the
biological groups, the expression difference between the groups cannot be
estimated.

The flags --models, --trials, --seed, and --cpu are read as in the command
'scdiff diff run'.

By default, the results will be stored in the file 'diff-batch.tab'; the
file name can be changed with the flag --file or -f. The file will be used
as the batch dataset of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var modelsFlag string
var outFile string
var trials int
var seed uint64
var numCPU int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&modelsFlag, "models", "grouped", "")
	c.Flags().StringVar(&outFile, "file", "diff-batch.tab", "")
	c.Flags().StringVar(&outFile, "f", "diff-batch.tab", "")
	c.Flags().IntVar(&trials, "trials", diffexp.DefaultTrials, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
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
	g, err := p.Groups()
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

	pr, err := readPrior(p, valid, sub)
	if err != nil {
		return err
	}

	tb, err := diffexp.Difference(valid, sub, diffexp.Param{
		Groups: g,
		Batch:  g,
		Prior:  pr,
		Trials: trials,
		CPU:    numCPU,
		Seed:   seed,
	})
	if err != nil {
		return err
	}

	sig := tb.Significant(diffexp.DefaultThreshold)
	fmt.Fprintf(c.Stdout(), "genes: %d\n", tb.Len())
	fmt.Fprintf(c.Stdout(), "maximum score: %.6g\n", tb.MaxAbsZ())
	fmt.Fprintf(c.Stdout(), "significant: %d\n", len(sig))

	if err := writeDiff(outFile, tb); err != nil {
		return err
	}

	if p.Path(project.DiffBatch) != outFile {
		p.Add(project.DiffBatch, outFile)
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

// ReadPrior builds the expression prior of the test.
// If the project has an expression dataset it will be used;
// otherwise the magnitudes are computed from the models.
func readPrior(p *project.Project, ms *errmod.Models, m *counts.Matrix) (*prior.Grid, error) {
	var e *errmod.Expression
	if p.Path(project.Express) != "" {
		var err error
		e, err = p.Express()
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		e, err = ms.Magnitude(m)
		if err != nil {
			return nil, err
		}
	}

	var mags []float64
	for _, g := range e.Genes() {
		mags = append(mags, e.Gene(g)...)
	}
	return prior.FromMagnitudes(mags, prior.DefaultPoints, prior.DefaultQuantile)
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

func writeDiff(name string, tb *diffexp.Table) (err error) {
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

	if err := tb.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
