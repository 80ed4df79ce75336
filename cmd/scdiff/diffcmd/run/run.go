// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package run implements a command to test
// the differential expression
// between the two cell groups
// of an scdiff project.
package run

import (
	"cmp"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/prior"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `run [--models <set>] [--trials <number>]
	[--seed <number>] [--threshold <value>]
	[--top <number>] [--cpu <number>]
	[-f|--file <diff-file>] <project-file>`,
	Short: "test the differential expression of a project",
	Long: `
Command run reads the count matrix, the cell groups, and the error models of
an scdiff project, and tests the expression difference of each gene between
the two cell groups.

The argument of the command is the name of the project file.

The test requires a project with exactly two groups. For each gene, the
observed counts are turned into expression values in log scale (a gene
without reads is imputed from the dropout probability of its cell), and the
difference between the mean of the first group and the mean of the second
group is compared with the differences obtained after shuffling the group
labels of the cells. The resulting scores are corrected for multiple testing
with the Benjamini-Hochberg procedure. See 'scdiff help diff diff-files' for
a description of the output.

By default, the models fitted with the cell groups are used; define the flag
--models as "pooled" to use the models fitted with all cells pooled.

The number of shuffles is defined with the flag --trials; by default, 150
shuffles are made. The shuffles are reproducible: running the command again
with the same --seed value (by default, 1) gives the same results.

The flag --threshold defines the significance level of the corrected score
used in the report (by default 1.96, a 95% level). The most extreme genes are
printed to the standard output; the number of printed genes is defined with
the flag --top (by default, 10).

By default, all available processors will be used; the number can be changed
with the flag --cpu.

By default, the results will be stored in the file 'diff-grouped.tab' (or
'diff-pooled.tab' with pooled models); the file name can be changed with the
flag --file or -f. The file will be used as a differential expression dataset
of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var modelsFlag string
var outFile string
var trials int
var seed uint64
var threshold float64
var topFlag int
var numCPU int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&modelsFlag, "models", "grouped", "")
	c.Flags().StringVar(&outFile, "file", "", "")
	c.Flags().StringVar(&outFile, "f", "", "")
	c.Flags().IntVar(&trials, "trials", diffexp.DefaultTrials, "")
	c.Flags().Uint64Var(&seed, "seed", 1, "")
	c.Flags().Float64Var(&threshold, "threshold", diffexp.DefaultThreshold, "")
	c.Flags().IntVar(&topFlag, "top", 10, "")
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	set := project.ModelsGrouped
	out := project.DiffGrouped
	label := "grouped"
	switch modelsFlag {
	case "grouped":
	case "pooled":
		set = project.ModelsPooled
		out = project.DiffPooled
		label = "pooled"
	default:
		return c.UsageError(fmt.Sprintf("invalid model set %q", modelsFlag))
	}
	if outFile == "" {
		outFile = fmt.Sprintf("diff-%s.tab", label)
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
		Prior:  pr,
		Trials: trials,
		CPU:    numCPU,
		Seed:   seed,
	})
	if err != nil {
		return err
	}

	sig := tb.Significant(threshold)
	down := tb.Down(threshold)
	fmt.Fprintf(c.Stdout(), "genes: %d\n", tb.Len())
	fmt.Fprintf(c.Stdout(), "significant: %d (threshold %.2f)\n", len(sig), threshold)
	if len(sig) > 0 {
		fmt.Fprintf(c.Stdout(), "down-regulated: %d (%.3f of significant)\n", len(down), float64(len(down))/float64(len(sig)))
	} else {
		fmt.Fprintf(c.Stdout(), "down-regulated: %d\n", len(down))
	}
	printTop(c, tb)

	if err := writeDiff(outFile, tb); err != nil {
		return err
	}

	if p.Path(out) != outFile {
		p.Add(out, outFile)
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

// PrintTop prints the genes
// with the most extreme corrected scores.
func printTop(c *command.Command, tb *diffexp.Table) {
	genes := tb.Genes()
	slices.SortStableFunc(genes, func(a, b string) int {
		ra, _ := tb.Result(a)
		rb, _ := tb.Result(b)
		return cmp.Compare(math.Abs(rb.CZ), math.Abs(ra.CZ))
	})

	top := topFlag
	if top > len(genes) {
		top = len(genes)
	}
	for _, gene := range genes[:top] {
		r, _ := tb.Result(gene)
		fmt.Fprintf(c.Stdout(), "%s\t%.6f\t%.6f\t%.6g\n", gene, r.Diff, r.CZ, r.AdjP)
	}
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
