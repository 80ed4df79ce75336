// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to print
// the basic information of a project.
package prj

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/norm"
	"github.com/js-arias/scdiff/project"
	"github.com/montanaflynn/stats"
)

var Command = &command.Command{
	Usage: "prj <project-file>",
	Short: "print information about a project",
	Long: `
Command prj reads an scdiff project and prints the information of the
different project elements into the standard output.

The argument of the command is the name of the project file.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	cF := p.Path(project.Counts)
	if cF != "" {
		if err := readCounts(c.Stdout(), cF); err != nil {
			return err
		}
	}

	gF := p.Path(project.Groups)
	if gF != "" {
		if err := readGroups(c.Stdout(), gF); err != nil {
			return err
		}
	}

	for _, set := range []project.Dataset{project.ModelsGrouped, project.ModelsPooled} {
		mF := p.Path(set)
		if mF == "" {
			continue
		}
		if err := readModels(c.Stdout(), mF, set); err != nil {
			return err
		}
	}

	fF := p.Path(project.Factors)
	if fF != "" {
		if err := readFactors(c.Stdout(), fF); err != nil {
			return err
		}
	}

	eF := p.Path(project.Express)
	if eF != "" {
		if err := readExpress(c.Stdout(), eF); err != nil {
			return err
		}
	}

	for _, set := range []project.Dataset{project.DiffGrouped, project.DiffPooled, project.DiffBatch} {
		dF := p.Path(set)
		if dF == "" {
			continue
		}
		if err := readDiff(c.Stdout(), dF, set); err != nil {
			return err
		}
	}

	return nil
}

func readCounts(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := counts.ReadTSV(f)
	if err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}

	fmt.Fprintf(w, "Count matrix:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tgenes: %d\n", len(m.Genes()))

	cs := m.Cells()
	fmt.Fprintf(w, "\tcells: %d\n", len(cs))

	var total int64
	libs := make([]float64, 0, len(cs))
	for _, c := range cs {
		s := m.LibSize(c)
		total += s
		libs = append(libs, float64(s))
	}
	fmt.Fprintf(w, "\ttotal reads: %d\n", total)
	if len(libs) > 0 {
		min, _ := stats.Min(libs)
		max, _ := stats.Max(libs)
		fmt.Fprintf(w, "\tlibrary size: %.0f-%.0f\n", min, max)
	}
	if q, err := stats.Quartile(libs); err == nil {
		fmt.Fprintf(w, "\tquartiles: %.0f, %.0f, %.0f\n", q.Q1, q.Q2, q.Q3)
	}
	fmt.Fprintf(w, "\n")

	return nil
}

func readGroups(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := cells.ReadTSV(f)
	if err != nil {
		return fmt.Errorf("when reading %q: %v", name, err)
	}

	fmt.Fprintf(w, "Cell groups:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tgroups: %d\n", len(g.Groups()))
	for _, gr := range g.Groups() {
		fmt.Fprintf(w, "\t%s: %d cells\n", gr, len(g.GroupCells(gr)))
	}
	fmt.Fprintf(w, "\n")

	return nil
}

func readModels(w io.Writer, name string, set project.Dataset) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	ms, err := errmod.ReadTSV(f)
	if err != nil {
		return fmt.Errorf("when reading %q: %v", name, err)
	}

	label := "grouped"
	if set == project.ModelsPooled {
		label = "pooled"
	}
	fmt.Fprintf(w, "Error models (%s):\n", label)
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tcells: %d\n", len(ms.Cells()))

	valid := ms.Valid()
	fmt.Fprintf(w, "\tvalid models: %d\n", len(valid.Cells()))

	sf := valid.SizeFactors()
	if len(sf) > 0 {
		fv := make([]float64, 0, len(sf))
		for _, v := range sf {
			fv = append(fv, v)
		}
		min, _ := stats.Min(fv)
		max, _ := stats.Max(fv)
		fmt.Fprintf(w, "\tsize factors: %.3f-%.3f\n", min, max)
	}
	fmt.Fprintf(w, "\n")

	return nil
}

func readFactors(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	tb, err := norm.ReadTable(f)
	if err != nil {
		return fmt.Errorf("when reading %q: %v", name, err)
	}

	fmt.Fprintf(w, "Size factors:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tcells: %d\n", len(tb.Cells()))
	fmt.Fprintf(w, "\tmethods:")
	for _, m := range tb.Methods() {
		fmt.Fprintf(w, " %s", m)
	}
	fmt.Fprintf(w, "\n\n")

	return nil
}

func readExpress(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	e, err := errmod.ReadExpression(f)
	if err != nil {
		return fmt.Errorf("when reading %q: %v", name, err)
	}

	fmt.Fprintf(w, "Expression magnitudes:\n")
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tgenes: %d\n", len(e.Genes()))
	fmt.Fprintf(w, "\tcells: %d\n", len(e.Cells()))
	fmt.Fprintf(w, "\n")

	return nil
}

func readDiff(w io.Writer, name string, set project.Dataset) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	tb, err := diffexp.ReadTSV(f)
	if err != nil {
		return fmt.Errorf("when reading %q: %v", name, err)
	}

	label := "grouped"
	switch set {
	case project.DiffPooled:
		label = "pooled"
	case project.DiffBatch:
		label = "batch"
	}
	fmt.Fprintf(w, "Differential expression (%s):\n", label)
	fmt.Fprintf(w, "\tfile: %s\n", name)
	fmt.Fprintf(w, "\tgenes: %d\n", tb.Len())

	sig := tb.Significant(diffexp.DefaultThreshold)
	down := tb.Down(diffexp.DefaultThreshold)
	fmt.Fprintf(w, "\tsignificant: %d (threshold %.2f)\n", len(sig), diffexp.DefaultThreshold)
	fmt.Fprintf(w, "\tdown-regulated: %d\n", len(down))
	fmt.Fprintf(w, "\n")

	return nil
}
