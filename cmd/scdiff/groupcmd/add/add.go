// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add cell group assignments
// to an scdiff project.
package add

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `add [-f|--file <group-file>] [--filter]
	<project-file> [<group-file>...]`,
	Short: "add cell groups to a project",
	Long: `
Command add reads one or more tab-delimited files with cell group
assignments, and add the assignments to an scdiff project.

The first argument of the command is the name of the project file.

One or more group files can be given as arguments. If no file is given the
groups will be read from the standard input. See 'scdiff help groups-files'
for a description of the file format.

If a cell is assigned on several files, the last read assignment will be
kept.

By default, all cell-group pairs will be added. If the flag --filter is
defined and there is a count matrix in the project, then it will add only
the assignments for the cells present in the matrix.

By default the assignments will be stored in the group file currently defined
for the project. If the project does not have a group file, a new one will be
created with the name 'groups.tab'. A different file name can be defined with
the flag --file or -f. If this flag is used, and there is a group file
already defined, then the new file will be created, and used as the group
file of the project (previously defined groups will be kept).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var outFile string
var filterFlag bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&outFile, "file", "", "")
	c.Flags().StringVar(&outFile, "f", "", "")
	c.Flags().BoolVar(&filterFlag, "filter", false, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	g, err := addGroups(c.Stdin(), p, args[1:])
	if err != nil {
		return err
	}

	gf := p.Path(project.Groups)
	if gf == "" {
		gf = "groups.tab"
	}
	if outFile != "" {
		gf = outFile
	}
	if err := writeGroups(gf, g); err != nil {
		return err
	}

	if p.Path(project.Groups) != gf {
		p.Add(project.Groups, gf)
		if err := p.Write(); err != nil {
			return err
		}
	}
	return nil
}

func addGroups(r io.Reader, p *project.Project, files []string) (*cells.Groups, error) {
	g := cells.New()

	if p.Path(project.Groups) != "" {
		var err error
		g, err = p.Groups()
		if err != nil {
			return nil, err
		}
	}

	var filter map[string]bool
	if filterFlag && p.Path(project.Counts) != "" {
		m, err := p.Counts()
		if err != nil {
			return nil, err
		}
		filter = make(map[string]bool)
		for _, c := range m.Cells() {
			filter[c] = true
		}
	}

	if len(files) == 0 {
		files = append(files, "-")
	}
	for _, f := range files {
		ng, err := readGroups(r, f)
		if err != nil {
			return nil, err
		}

		for _, c := range ng.Cells() {
			if filter != nil && !filter[c] {
				continue
			}
			g.Add(c, ng.Group(c))
		}
	}
	return g, nil
}

func readGroups(r io.Reader, name string) (*cells.Groups, error) {
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		name = "stdin"
	}

	g, err := cells.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return g, nil
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
