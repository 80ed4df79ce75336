// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package report implements a command to build
// an HTML report of an scdiff project.
package report

import (
	"cmp"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/project"
	"github.com/montanaflynn/stats"
)

var Command = &command.Command{
	Usage: `report [-o|--output <file>] [--top <number>]
	<project-file>`,
	Short: "build an HTML report of a project",
	Long: `
Command report reads the datasets of an scdiff project and writes an HTML
page with a summary of the analysis: the size of the count matrix, the cell
groups, the fitted error models, the comparison of the size factors, and the
results of the differential expression tests.

The argument of the command is the name of the project file.

The plots of the report (the size factor comparison and the distribution of
the per-cell totals) are saved as PNG files next to the report, using the
report name as prefix.

The genes with the most extreme corrected scores of each differential
expression dataset are listed in the report; the number of listed genes is
defined with the flag --top (by default, 15).

By default, the report will be stored in the file 'report.html'; the file
name can be changed with the flag --output or -o.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var output string
var topFlag int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&output, "output", "report.html", "")
	c.Flags().StringVar(&output, "o", "report.html", "")
	c.Flags().IntVar(&topFlag, "top", 15, "")
}

type reportData struct {
	Project string
	Date    string
	Sets    []setRow
	Counts  *countsInfo
	Groups  *groupsInfo
	Models  []modelsInfo
	Factors *factorsInfo
	Express *expressInfo
	Totals  string
	Diff    []diffInfo
}

type setRow struct {
	Set  string
	Path string
}

type countsInfo struct {
	File   string
	Genes  int
	Cells  int
	Total  int64
	Min    float64
	Median float64
	Max    float64
}

type groupsInfo struct {
	File   string
	Groups []groupRow
}

type groupRow struct {
	Name  string
	Cells int
}

type modelsInfo struct {
	Label string
	File  string
	Cells int
	Valid int
	Min   float64
	Max   float64
}

type factorsInfo struct {
	File    string
	Cells   int
	Methods string
	Corr    []corrRow
	Plots   []string
}

type corrRow struct {
	Methods string
	R       float64
}

type expressInfo struct {
	File  string
	Genes int
	Cells int
}

type diffInfo struct {
	Label       string
	File        string
	Genes       int
	Significant int
	Down        int
	DownProp    float64
	MaxScore    float64
	Top         []diffexp.Result
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	rd := &reportData{
		Project: args[0],
		Date:    time.Now().Format(time.RFC3339),
	}
	for _, s := range p.Sets() {
		rd.Sets = append(rd.Sets, setRow{
			Set:  string(s),
			Path: p.Path(s),
		})
	}

	prefix := strings.TrimSuffix(output, ".html")

	var g *cells.Groups
	if p.Path(project.Groups) != "" {
		g, err = p.Groups()
		if err != nil {
			return err
		}
		gi := &groupsInfo{File: p.Path(project.Groups)}
		for _, gr := range g.Groups() {
			gi.Groups = append(gi.Groups, groupRow{
				Name:  gr,
				Cells: len(g.GroupCells(gr)),
			})
		}
		rd.Groups = gi
	}

	if p.Path(project.Counts) != "" {
		if err := countsReport(rd, p); err != nil {
			return err
		}
	}

	for _, set := range []project.Dataset{project.ModelsGrouped, project.ModelsPooled} {
		if p.Path(set) == "" {
			continue
		}
		if err := modelsReport(rd, p, set); err != nil {
			return err
		}
	}

	if p.Path(project.Factors) != "" {
		if err := factorsReport(rd, p, g, prefix); err != nil {
			return err
		}
	}

	if p.Path(project.Express) != "" {
		if err := expressReport(rd, p); err != nil {
			return err
		}
	}

	if p.Path(project.Counts) != "" {
		if err := totalsReport(rd, p, g, prefix); err != nil {
			return err
		}
	}

	for _, set := range []project.Dataset{project.DiffGrouped, project.DiffPooled, project.DiffBatch} {
		if p.Path(set) == "" {
			continue
		}
		if err := diffReport(rd, p, set); err != nil {
			return err
		}
	}

	if err := writeReport(output, rd); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "report: %s\n", output)
	return nil
}

func countsReport(rd *reportData, p *project.Project) error {
	m, err := p.Counts()
	if err != nil {
		return err
	}

	ci := &countsInfo{
		File:  p.Path(project.Counts),
		Genes: len(m.Genes()),
		Cells: len(m.Cells()),
	}
	libs := make([]float64, 0, ci.Cells)
	for _, id := range m.Cells() {
		s := m.LibSize(id)
		ci.Total += s
		libs = append(libs, float64(s))
	}
	if len(libs) > 0 {
		ci.Min, _ = stats.Min(libs)
		ci.Max, _ = stats.Max(libs)
		ci.Median, _ = stats.Median(libs)
	}
	rd.Counts = ci
	return nil
}

func modelsReport(rd *reportData, p *project.Project, set project.Dataset) error {
	ms, err := p.Models(set)
	if err != nil {
		return err
	}

	label := "grouped"
	if set == project.ModelsPooled {
		label = "pooled"
	}
	mi := modelsInfo{
		Label: label,
		File:  p.Path(set),
		Cells: len(ms.Cells()),
	}

	valid := ms.Valid()
	mi.Valid = len(valid.Cells())
	sf := valid.SizeFactors()
	if len(sf) > 0 {
		fv := make([]float64, 0, len(sf))
		for _, v := range sf {
			fv = append(fv, v)
		}
		mi.Min, _ = stats.Min(fv)
		mi.Max, _ = stats.Max(fv)
	}
	rd.Models = append(rd.Models, mi)
	return nil
}

func factorsReport(rd *reportData, p *project.Project, g *cells.Groups, prefix string) error {
	tb, err := p.Factors()
	if err != nil {
		return err
	}

	methods := tb.Methods()
	fi := &factorsInfo{
		File:    p.Path(project.Factors),
		Cells:   len(tb.Cells()),
		Methods: strings.Join(methods, ", "),
	}

	for i := 0; i < len(methods); i++ {
		for j := i + 1; j < len(methods); j++ {
			r, err := stats.Correlation(tb.Column(methods[i]), tb.Column(methods[j]))
			if err != nil {
				return err
			}
			fi.Corr = append(fi.Corr, corrRow{
				Methods: methods[i] + "-" + methods[j],
				R:       r,
			})

			name := fmt.Sprintf("%s-%s-%s.png", prefix, methods[i], methods[j])
			if err := scatterPlot(name, tb, methods[i], methods[j], g); err != nil {
				return err
			}
			fi.Plots = append(fi.Plots, filepath.Base(name))
		}
	}
	rd.Factors = fi
	return nil
}

func expressReport(rd *reportData, p *project.Project) error {
	e, err := p.Express()
	if err != nil {
		return err
	}

	rd.Express = &expressInfo{
		File:  p.Path(project.Express),
		Genes: len(e.Genes()),
		Cells: len(e.Cells()),
	}
	return nil
}

func totalsReport(rd *reportData, p *project.Project, g *cells.Groups, prefix string) error {
	m, err := p.Counts()
	if err != nil {
		return err
	}

	raw := make(map[string]float64, len(m.Cells()))
	for _, id := range m.Cells() {
		raw[id] = float64(m.LibSize(id))
	}
	cols := []totalsColumn{{label: "raw", totals: raw}}

	for _, set := range []project.Dataset{project.ModelsGrouped, project.ModelsPooled} {
		if p.Path(set) == "" {
			continue
		}
		ms, err := p.Models(set)
		if err != nil {
			return err
		}
		label := "grouped"
		if set == project.ModelsPooled {
			label = "pooled"
		}
		col, err := adjustedTotals(label, ms.Valid(), m)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}

	name := fmt.Sprintf("%s-totals.png", prefix)
	if err := totalsPlot(name, g, cols); err != nil {
		return err
	}
	rd.Totals = filepath.Base(name)
	return nil
}

// AdjustedTotals returns the per-cell totals
// of the expression magnitudes
// under a set of error models.
func adjustedTotals(label string, ms *errmod.Models, m *counts.Matrix) (totalsColumn, error) {
	var ids []string
	for _, id := range m.Cells() {
		if _, ok := ms.Model(id); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return totalsColumn{}, fmt.Errorf("no cell with a valid error model")
	}
	sub := m
	if len(ids) < len(m.Cells()) {
		var err error
		sub, err = counts.New(m.Genes(), ids)
		if err != nil {
			return totalsColumn{}, err
		}
		for _, gene := range m.Genes() {
			for _, id := range ids {
				if err := sub.Set(gene, id, m.Count(gene, id)); err != nil {
					return totalsColumn{}, err
				}
			}
		}
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

func diffReport(rd *reportData, p *project.Project, set project.Dataset) error {
	tb, err := p.Diff(set)
	if err != nil {
		return err
	}

	label := "grouped"
	switch set {
	case project.DiffPooled:
		label = "pooled"
	case project.DiffBatch:
		label = "batch"
	}
	di := diffInfo{
		Label:       label,
		File:        p.Path(set),
		Genes:       tb.Len(),
		Significant: len(tb.Significant(diffexp.DefaultThreshold)),
		Down:        len(tb.Down(diffexp.DefaultThreshold)),
		MaxScore:    tb.MaxAbsZ(),
	}
	if di.Significant > 0 {
		di.DownProp = float64(di.Down) / float64(di.Significant)
	}

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
		di.Top = append(di.Top, r)
	}
	rd.Diff = append(rd.Diff, di)
	return nil
}
