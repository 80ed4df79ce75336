// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements a command to fit
// the error models of the cells
// of an scdiff project.
package fit

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/infer/linfit"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `fit [--detected <value>] [--cpu <number>]
	[-o|--output <file-prefix>] <project-file>`,
	Short: "fit the error models of a project",
	Long: `
Command fit reads the count matrix of an scdiff project and fits an error
model for each cell.

The argument of the command is the name of the project file.

Two sets of models are fitted. If the project has a group file, the models
are fitted using the cells of each group to build the reference expression of
the group ("grouped" models). A second set is always fitted pooling all the
cells into a single reference ("pooled" models); when the groups are well
separated, the pooled models are distorted by the genes that differ between
the groups, and the comparison of both fits is a simple diagnostic of the
group structure.

The reference of a fit is made of the genes detected in a minimum fraction of
the cells; the fraction can be changed with the flag --detected. By default,
0.80 is used.

By default, all available processors will be used for the fit; the number can
be changed with the flag --cpu.

The models are stored in the files '<prefix>-grouped.tab' and
'<prefix>-pooled.tab'; by default the prefix is "models", and it can be
changed with the flag --output or -o. The files are set as the model datasets
of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var detected float64
var numCPU int
var output string

func setFlags(c *command.Command) {
	c.Flags().Float64Var(&detected, "detected", linfit.DefaultMinDetected, "")
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
	c.Flags().StringVar(&output, "output", "models", "")
	c.Flags().StringVar(&output, "o", "models", "")
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

	ft := linfit.Fitter{
		MinDetected: detected,
		CPU:         numCPU,
	}

	if p.Path(project.Groups) != "" {
		g, err := p.Groups()
		if err != nil {
			return err
		}
		if err := fitModels(c, p, ft, m, g, project.ModelsGrouped, "grouped"); err != nil {
			return err
		}
	}

	if err := fitModels(c, p, ft, m, nil, project.ModelsPooled, "pooled"); err != nil {
		return err
	}
	return nil
}

func fitModels(c *command.Command, p *project.Project, ft linfit.Fitter, m *counts.Matrix, g *cells.Groups, set project.Dataset, label string) error {
	ms, err := ft.Fit(m, g)
	if err != nil {
		return fmt.Errorf("while fitting %s models: %v", label, err)
	}
	valid := ms.Valid()
	fmt.Fprintf(c.Stdout(), "%s models: %d cells, %d valid\n", label, len(ms.Cells()), len(valid.Cells()))

	name := fmt.Sprintf("%s-%s.tab", output, label)
	if err := writeModels(name, ms); err != nil {
		return err
	}

	if p.Path(set) != name {
		p.Add(set, name)
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

func writeModels(name string, ms *errmod.Models) (err error) {
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

	if err := ms.TSV(f); err != nil {
		return fmt.Errorf("while writing %q: %v", name, err)
	}
	return nil
}
