// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package factors implements a command to compare
// the size factors of the cells
// of an scdiff project.
package factors

import (
	"fmt"
	"os"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/norm"
	"github.com/js-arias/scdiff/project"
	"github.com/montanaflynn/stats"
)

var Command = &command.Command{
	Usage: `factors [--method <method>] [--plot <file-prefix>]
	[-f|--file <factor-file>] <project-file>`,
	Short: "compare the size factors of a project",
	Long: `
Command factors reads the count matrix and the error models of an scdiff
project and builds a table with the size factors of each cell under the
different estimation methods.

The argument of the command is the name of the project file.

For each error model dataset of the project, the size factor of a cell is
the exponential of the intercept of its fitted model; cells with an invalid
model are skipped. A last method estimates the factors from the counts alone:
by default the median of the ratios to a reference gene expression built from
the geometric mean of each gene. If the flag --method is defined as
"quantile", the upper quartile of the scaled counts is used instead.

The correlation between each pair of methods is printed to the standard
output.

If the flag --plot is defined, a scatter plot of each pair of methods will be
saved as a PNG file, using the indicated prefix.

By default, the factors will be stored in the file 'factors.tab'; the file
name can be changed with the flag --file or -f. The file will be used as the
factor dataset of the project.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var methodFlag string
var plotPrefix string
var outFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&methodFlag, "method", "ratio", "")
	c.Flags().StringVar(&plotPrefix, "plot", "", "")
	c.Flags().StringVar(&outFile, "file", "factors.tab", "")
	c.Flags().StringVar(&outFile, "f", "factors.tab", "")
}

type column struct {
	method string
	vals   map[string]float64
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if methodFlag != "ratio" && methodFlag != "quantile" {
		return c.UsageError(fmt.Sprintf("invalid method %q", methodFlag))
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	m, err := p.Counts()
	if err != nil {
		return err
	}

	var cols []column
	for _, set := range []project.Dataset{project.ModelsGrouped, project.ModelsPooled} {
		if p.Path(set) == "" {
			continue
		}
		ms, err := p.Models(set)
		if err != nil {
			return err
		}
		method := "grouped"
		if set == project.ModelsPooled {
			method = "pooled"
		}
		cols = append(cols, column{
			method: method,
			vals:   ms.Valid().SizeFactors(),
		})
	}

	var ratio map[string]float64
	if methodFlag == "quantile" {
		ratio, err = norm.UpperQuartile(m)
	} else {
		ratio, err = norm.MedianRatio(m)
	}
	if err != nil {
		return err
	}
	cols = append(cols, column{method: methodFlag, vals: ratio})

	methods := make([]string, 0, len(cols))
	for _, col := range cols {
		methods = append(methods, col.method)
	}
	tb, err := norm.NewTable(methods)
	if err != nil {
		return err
	}

	skipped := 0
	for _, id := range m.Cells() {
		fv := make([]float64, 0, len(cols))
		ok := true
		for _, col := range cols {
			v := col.vals[id]
			if v <= 0 {
				ok = false
				break
			}
			fv = append(fv, v)
		}
		if !ok {
			skipped++
			continue
		}
		if err := tb.Add(id, fv); err != nil {
			return err
		}
	}
	if len(tb.Cells()) == 0 {
		return fmt.Errorf("no cell with size factors on every method")
	}
	if skipped > 0 {
		fmt.Fprintf(c.Stdout(), "skipped cells: %d\n", skipped)
	}

	for i := 0; i < len(methods); i++ {
		for j := i + 1; j < len(methods); j++ {
			r, err := stats.Correlation(tb.Column(methods[i]), tb.Column(methods[j]))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Stdout(), "correlation %s-%s: %.6f\n", methods[i], methods[j], r)
		}
	}

	if err := writeFactors(outFile, tb); err != nil {
		return err
	}

	if p.Path(project.Factors) != outFile {
		p.Add(project.Factors, outFile)
		if err := p.Write(); err != nil {
			return err
		}
	}

	if plotPrefix != "" {
		var g *cells.Groups
		if p.Path(project.Groups) != "" {
			g, err = p.Groups()
			if err != nil {
				return err
			}
		}
		for i := 0; i < len(methods); i++ {
			for j := i + 1; j < len(methods); j++ {
				name := fmt.Sprintf("%s-%s-%s.png", plotPrefix, methods[i], methods[j])
				if err := scatterPlot(name, tb, methods[i], methods[j], g); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeFactors(name string, tb *norm.Table) (err error) {
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
