// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package cells provides a grouping of cells
// into biological or technical groups.
package cells

import (
	"fmt"
	"slices"
	"strings"
)

// Groups is an assignment of cells
// into a set of named groups.
// Groups are ordered,
// so the first defined group
// is used as the reference
// when comparing expression between groups.
type Groups struct {
	levels []string
	cell   map[string]string
}

// New creates a new empty group assignment.
func New() *Groups {
	return &Groups{
		cell: make(map[string]string),
	}
}

// FromPrefix creates a group assignment
// for a set of cells,
// using a list of group names
// that are prefixes of the cell identifiers
// (for example a cell "ESC.17"
// is assigned to the group "ESC").
// The order of the groups is preserved,
// and each cell is assigned to the first matching group.
// It returns an error
// if a cell does not match any group.
func FromPrefix(cells []string, groups []string) (*Groups, error) {
	g := New()
	for _, c := range cells {
		assigned := false
		for _, p := range groups {
			if strings.HasPrefix(c, p) {
				g.Add(c, p)
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, fmt.Errorf("cell %q: no group prefix matches", c)
		}
	}

	// keep the given group order
	// even if a group has no cells
	for _, p := range groups {
		g.addLevel(p)
	}
	return g, nil
}

// Add assigns a cell to a group.
// If the cell was assigned before,
// the previous assignment is discarded.
func (g *Groups) Add(cell, group string) {
	cell = strings.Join(strings.Fields(cell), " ")
	if cell == "" {
		return
	}
	group = strings.Join(strings.Fields(group), " ")
	if group == "" {
		return
	}

	g.addLevel(group)
	g.cell[cell] = group
}

// Cells returns the cells with a group assignment.
func (g *Groups) Cells() []string {
	cells := make([]string, 0, len(g.cell))
	for c := range g.cell {
		cells = append(cells, c)
	}
	slices.Sort(cells)
	return cells
}

// Group returns the group assigned to a cell.
// It returns an empty string
// if the cell has no assigned group.
func (g *Groups) Group(cell string) string {
	cell = strings.Join(strings.Fields(cell), " ")
	return g.cell[cell]
}

// GroupCells returns the cells assigned to a group.
func (g *Groups) GroupCells(group string) []string {
	group = strings.Join(strings.Fields(group), " ")

	var cells []string
	for c, gr := range g.cell {
		if gr == group {
			cells = append(cells, c)
		}
	}
	slices.Sort(cells)
	return cells
}

// Groups returns the defined groups,
// in the order in which they were defined.
func (g *Groups) Groups() []string {
	levels := make([]string, len(g.levels))
	copy(levels, g.levels)
	return levels
}

func (g *Groups) addLevel(group string) {
	if slices.Contains(g.levels, group) {
		return
	}
	g.levels = append(g.levels, group)
}
