// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add read counts
// to an scdiff project.
package add

import (
	"fmt"
	"io"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/project"
)

var Command = &command.Command{
	Usage: `add [-f|--file <count-file>]
	<project-file> [<count-file>...]`,
	Short: "add read counts to a project",
	Long: `
Command add reads one or more tab-delimited files with read counts, and add
the counts to an scdiff project.

The first argument of the command is the name of the project file. If the
project file does not exist, a new project will be created.

One or more count files can be given as arguments. If no file is given the
counts will be read from the standard input. See 'scdiff help counts-files'
for a description of the file format.

If several files share a gene-cell pair, the last value read will be kept.

By default the counts will be stored in the count file currently defined for
the project. If the project does not have a count file, a new one will be
created with the name 'counts.tab'. A different file name can be defined with
the flag --file or -f. If this flag is used, and there is a count file
already defined, then the new file will be created, and used as the count
file of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var outFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&outFile, "file", "", "")
	c.Flags().StringVar(&outFile, "f", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := openProject(args[0])
	if err != nil {
		return err
	}

	m, err := addCounts(c.Stdin(), p, args[1:])
	if err != nil {
		return err
	}

	cf := p.Path(project.Counts)
	if cf == "" {
		cf = "counts.tab"
	}
	if outFile != "" {
		cf = outFile
	}
	if err := writeCounts(cf, m); err != nil {
		return err
	}

	if p.Path(project.Counts) != cf {
		p.Add(project.Counts, cf)
		if err := p.Write(); err != nil {
			return err
		}
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

func addCounts(r io.Reader, p *project.Project, files []string) (*counts.Matrix, error) {
	var ms []*counts.Matrix

	if p.Path(project.Counts) != "" {
		m, err := p.Counts()
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}

	if len(files) == 0 {
		files = append(files, "-")
	}
	for _, f := range files {
		m, err := readCounts(r, f)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}

	return merge(ms)
}

// Merge joins several count matrices
// into a single matrix.
// Genes and cells keep the order
// in which they are first read;
// on a shared gene-cell pair
// the last count is kept.
func merge(ms []*counts.Matrix) (*counts.Matrix, error) {
	var genes, ids []string
	addedGene := make(map[string]bool)
	addedCell := make(map[string]bool)
	for _, m := range ms {
		for _, g := range m.Genes() {
			if addedGene[g] {
				continue
			}
			addedGene[g] = true
			genes = append(genes, g)
		}
		for _, c := range m.Cells() {
			if addedCell[c] {
				continue
			}
			addedCell[c] = true
			ids = append(ids, c)
		}
	}

	nm, err := counts.New(genes, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		for _, g := range m.Genes() {
			for _, c := range m.Cells() {
				if err := nm.Set(g, c, m.Count(g, c)); err != nil {
					return nil, err
				}
			}
		}
	}
	return nm, nil
}

func readCounts(r io.Reader, name string) (*counts.Matrix, error) {
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

	m, err := counts.ReadTSV(r)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return m, nil
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
