// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/scdiff/cells"
	"github.com/js-arias/scdiff/counts"
	"github.com/js-arias/scdiff/diffexp"
	"github.com/js-arias/scdiff/errmod"
	"github.com/js-arias/scdiff/norm"
)

// Counts reads a count matrix file
// as defined in a project.
func (p *Project) Counts() (*counts.Matrix, error) {
	name := p.Path(Counts)
	if name == "" {
		return nil, fmt.Errorf("count matrix not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := counts.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return m, nil
}

// Groups reads a cell group file
// as defined in a project.
func (p *Project) Groups() (*cells.Groups, error) {
	name := p.Path(Groups)
	if name == "" {
		return nil, fmt.Errorf("cell groups not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := cells.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return g, nil
}

// Models reads an error model file
// as defined in a project.
// The set must be ModelsGrouped or ModelsPooled.
func (p *Project) Models(set Dataset) (*errmod.Models, error) {
	if set != ModelsGrouped && set != ModelsPooled {
		return nil, fmt.Errorf("invalid dataset %q for error models", set)
	}
	name := p.Path(set)
	if name == "" {
		return nil, fmt.Errorf("error models %q not defined in project %q", set, p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ms, err := errmod.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return ms, nil
}

// Factors reads a size factor table
// as defined in a project.
func (p *Project) Factors() (*norm.Table, error) {
	name := p.Path(Factors)
	if name == "" {
		return nil, fmt.Errorf("size factors not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tb, err := norm.ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return tb, nil
}

// Express reads an expression magnitude file
// as defined in a project.
func (p *Project) Express() (*errmod.Expression, error) {
	name := p.Path(Express)
	if name == "" {
		return nil, fmt.Errorf("expression magnitudes not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := errmod.ReadExpression(f)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return e, nil
}

// Diff reads a differential expression file
// as defined in a project.
// The set must be DiffGrouped,
// DiffPooled,
// or DiffBatch.
func (p *Project) Diff(set Dataset) (*diffexp.Table, error) {
	if set != DiffGrouped && set != DiffPooled && set != DiffBatch {
		return nil, fmt.Errorf("invalid dataset %q for differential expression", set)
	}
	name := p.Path(set)
	if name == "" {
		return nil, fmt.Errorf("differential expression %q not defined in project %q", set, p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tb, err := diffexp.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return tb, nil
}
