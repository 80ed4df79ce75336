// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package cellscmd implements a command to print
// the list of the cells in the count matrix
// of an scdiff project.
package cellscmd

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: "cells [--group <group>] <project-file>",
	Short: "print a list of cells",
	Long: `
Command cells reads the count matrix of an scdiff project and prints the
identifier, the library size, and the group of each cell into the standard
output.

The argument of the command is the name of the project file.

By default all cells will be printed, in the order of the count matrix. If
the flag --group is set, only the cells assigned to the indicated group will
be printed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var groupFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&groupFlag, "group", "", "")
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

	g := cells.New()
	if p.Path(project.Groups) != "" {
		g, err = p.Groups()
		if err != nil {
			return err
		}
	}

	for _, id := range m.Cells() {
		gr := g.Group(id)
		if groupFlag != "" && gr != groupFlag {
			continue
		}
		fmt.Fprintf(c.Stdout(), "%s\t%d\t%s\n", id, m.LibSize(id), gr)
	}
	return nil
}
