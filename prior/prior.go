// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prior provides a prior distribution
// for gene expression magnitudes,
// discretized as a grid
// of evenly spaced points
// on the log magnitude scale.
package prior

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default parameters of a prior grid.
const (
	// DefaultPoints is the default number of points
	// of the grid.
	DefaultPoints = 400

	// DefaultQuantile is the default quantile
	// of the observed magnitudes
	// used as the upper bound of the grid.
	DefaultQuantile = 0.999
)

// A Grid is a discrete prior
// for gene expression magnitudes.
// Each point of the grid is a log magnitude value
// with its prior probability.
type Grid struct {
	vals []float64
	prob []float64
	step float64
}

// FromMagnitudes returns a prior grid
// built from a collection of expression magnitudes.
// Magnitudes of zero are ignored.
// The grid has the indicated number of points,
// spanning from the smallest observed log magnitude
// up to the given quantile of the log magnitudes,
// so a few extreme observations
// do not stretch the grid.
// The probability of each point
// is given by a normal density
// fitted to the log magnitudes.
func FromMagnitudes(mags []float64, points int, quantile float64) (*Grid, error) {
	if points < 2 {
		return nil, fmt.Errorf("got %d grid points, want 2 or more", points)
	}
	if quantile <= 0 || quantile >= 1 {
		return nil, fmt.Errorf("invalid quantile %.6f", quantile)
	}

	var lv []float64
	for _, m := range mags {
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		lv = append(lv, math.Log(m))
	}
	if len(lv) == 0 {
		return nil, fmt.Errorf("no expressed genes")
	}

	min := lv[0]
	for _, v := range lv {
		if v < min {
			min = v
		}
	}
	max, err := stats.Percentile(lv, quantile*100)
	if err != nil {
		return nil, fmt.Errorf("on quantile %.6f: %v", quantile, err)
	}
	if max <= min {
		return nil, fmt.Errorf("magnitude range is degenerate")
	}

	mu, err := stats.Mean(lv)
	if err != nil {
		return nil, err
	}
	sd, err := stats.StandardDeviation(lv)
	if err != nil {
		return nil, err
	}

	n := distuv.Normal{Mu: mu, Sigma: sd}
	g := &Grid{
		vals: make([]float64, points),
		prob: make([]float64, points),
		step: (max - min) / float64(points-1),
	}
	var sum float64
	for i := range g.vals {
		v := min + g.step*float64(i)
		g.vals[i] = v
		p := n.Prob(v)
		g.prob[i] = p
		sum += p
	}
	for i := range g.prob {
		g.prob[i] /= sum
	}
	return g, nil
}

// Index returns the index
// of the grid point closest
// to the given log magnitude.
// Values outside of the grid
// are mapped to the first,
// or the last,
// point of the grid.
func (g *Grid) Index(logMag float64) int {
	i := int(math.Round((logMag - g.vals[0]) / g.step))
	if i < 0 {
		return 0
	}
	if i >= len(g.vals) {
		return len(g.vals) - 1
	}
	return i
}

// Len returns the number of points of the grid.
func (g *Grid) Len() int {
	return len(g.vals)
}

// Mean returns the expected log magnitude
// under the prior.
func (g *Grid) Mean() float64 {
	var m float64
	for i, v := range g.vals {
		m += v * g.prob[i]
	}
	return m
}

// Prob returns the prior probability
// of a grid point.
func (g *Grid) Prob(i int) float64 {
	return g.prob[i]
}

// Value returns the log magnitude
// of a grid point.
func (g *Grid) Value(i int) float64 {
	return g.vals[i]
}
