// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package prior_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/js-arias/scdiff/prior"
)

func TestGrid(t *testing.T) {
	rng := rand.New(rand.NewPCG(51, 13))

	// log-normal magnitudes around exp(3)
	mags := make([]float64, 5000)
	for i := range mags {
		mags[i] = math.Exp(rng.NormFloat64() + 3)
	}
	// add some dropouts
	for i := 0; i < len(mags); i += 10 {
		mags[i] = 0
	}

	g, err := prior.FromMagnitudes(mags, prior.DefaultPoints, prior.DefaultQuantile)
	if err != nil {
		t.Fatalf("unable to build prior: %v", err)
	}

	if g.Len() != prior.DefaultPoints {
		t.Errorf("grid size: got %d, want %d", g.Len(), prior.DefaultPoints)
	}

	// points must be evenly spaced
	// and increasing
	step := g.Value(1) - g.Value(0)
	if step <= 0 {
		t.Errorf("grid step: got %.6f, want a positive value", step)
	}
	for i := 1; i < g.Len(); i++ {
		d := g.Value(i) - g.Value(i-1)
		if math.Abs(d-step) > 0.000001 {
			t.Errorf("grid point %d: spacing: got %.6f, want %.6f", i, d, step)
		}
	}

	// probabilities must be normalized
	var sum float64
	for i := 0; i < g.Len(); i++ {
		p := g.Prob(i)
		if p <= 0 {
			t.Errorf("grid point %d: probability: got %.6f, want a positive value", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 0.000001 {
		t.Errorf("probability sum: got %.6f, want 1", sum)
	}

	// the mode of the prior
	// must be close to the center of the magnitudes
	max := 0
	for i := 1; i < g.Len(); i++ {
		if g.Prob(i) > g.Prob(max) {
			max = i
		}
	}
	if v := g.Value(max); math.Abs(v-3) > 0.25 {
		t.Errorf("prior mode: got %.6f, want %.6f", v, 3.0)
	}
	if m := g.Mean(); math.Abs(m-3) > 0.25 {
		t.Errorf("prior mean: got %.6f, want %.6f", m, 3.0)
	}
}

func TestIndex(t *testing.T) {
	mags := []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512}
	g, err := prior.FromMagnitudes(mags, 10, 0.999)
	if err != nil {
		t.Fatalf("unable to build prior: %v", err)
	}

	for _, i := range []int{0, 3, 5, 9} {
		if v := g.Index(g.Value(i)); v != i {
			t.Errorf("index of point %d: got %d", i, v)
		}
	}

	if v := g.Index(-1000); v != 0 {
		t.Errorf("index below the grid: got %d, want 0", v)
	}
	if v := g.Index(1000); v != g.Len()-1 {
		t.Errorf("index above the grid: got %d, want %d", v, g.Len()-1)
	}

	step := g.Value(1) - g.Value(0)
	if v := g.Index(g.Value(4) + step/3); v != 4 {
		t.Errorf("index of an off grid value: got %d, want %d", v, 4)
	}
	if v := g.Index(g.Value(4) + 2*step/3); v != 5 {
		t.Errorf("index of an off grid value: got %d, want %d", v, 5)
	}
}

func TestGridErrors(t *testing.T) {
	mags := []float64{1, 2, 4, 8}

	if _, err := prior.FromMagnitudes(mags, 1, 0.999); err == nil {
		t.Errorf("expecting error with a single grid point")
	}
	if _, err := prior.FromMagnitudes(mags, 10, 1.5); err == nil {
		t.Errorf("expecting error with an invalid quantile")
	}
	if _, err := prior.FromMagnitudes([]float64{0, 0, 0}, 10, 0.999); err == nil {
		t.Errorf("expecting error without expressed genes")
	}
	if _, err := prior.FromMagnitudes([]float64{8, 8, 8, 8}, 10, 0.999); err == nil {
		t.Errorf("expecting error with a degenerate range")
	}
}
