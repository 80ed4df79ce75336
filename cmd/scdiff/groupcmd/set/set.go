// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package set implements a command to assign
// the cells of an scdiff project to groups
// using name prefixes.
package set

import (
	"fmt"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `set --prefix <prefix-list> [-f|--file <group-file>]
	<project-file>`,
	Short: "assign cell groups by name prefix",
	Long: `
Command set reads the count matrix of an scdiff project and assigns each cell
to a group using the prefix of the cell identifier.

The argument of the command is the name of the project file.

The flag --prefix is required and defines the groups as a comma-separated
list of name prefixes; for example, "ESC,MEF" defines the group ESC for the
cells named like "ESC.1", and the group MEF for the cells named like "MEF.3".
Each cell is assigned to the first prefix in the list that matches its name.
If a cell does not match any prefix, the command will fail; in that case
build the assignment by hand and use the command 'scdiff groups add'.

The order of the list is kept: the differential expression results are
reported as the expression of the first group with respect to the second.

By default, the groups will be stored in the file 'groups.tab'; the file name
can be changed with the flag --file or -f. The file will be used as the group
file of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var prefixFlag string
var outFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&prefixFlag, "prefix", "", "")
	c.Flags().StringVar(&outFile, "file", "groups.tab", "")
	c.Flags().StringVar(&outFile, "f", "groups.tab", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if prefixFlag == "" {
		return c.UsageError("expecting prefix list, flag --prefix")
	}

	var prefixes []string
	for _, pf := range strings.Split(prefixFlag, ",") {
		pf = strings.TrimSpace(pf)
		if pf == "" {
			continue
		}
		prefixes = append(prefixes, pf)
	}
	if len(prefixes) < 2 {
		return c.UsageError("expecting two or more group prefixes")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	m, err := p.Counts()
	if err != nil {
		return err
	}

	g, err := cells.FromPrefix(m.Cells(), prefixes)
	if err != nil {
		return err
	}
	for _, gr := range g.Groups() {
		fmt.Fprintf(c.Stdout(), "%s: %d cells\n", gr, len(g.GroupCells(gr)))
	}

	if err := writeGroups(outFile, g); err != nil {
		return err
	}

	if p.Path(project.Groups) != outFile {
		p.Add(project.Groups, outFile)
		if err := p.Write(); err != nil {
			return err
		}
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
