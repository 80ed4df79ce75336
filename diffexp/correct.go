// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package diffexp

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// Correct transforms the raw scores
// into two sided p-values,
// adjusts the p-values for multiple testing
// with the Benjamini-Hochberg procedure,
// and maps the adjusted values
// back into scores
// keeping the sign of the raw score.
func (tb *Table) correct() {
	for i := range tb.rows {
		z := tb.rows[i].Z
		tb.rows[i].P = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	}

	order := make([]int, len(tb.rows))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		pa, pb := tb.rows[a].P, tb.rows[b].P
		if pa < pb {
			return -1
		}
		if pa > pb {
			return 1
		}
		return 0
	})

	n := float64(len(tb.rows))
	min := 1.0
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		adj := tb.rows[i].P * n / float64(k+1)
		if adj < min {
			min = adj
		}
		tb.rows[i].AdjP = min
	}

	for i := range tb.rows {
		rw := &tb.rows[i]
		q := distuv.UnitNormal.Quantile(1 - rw.AdjP/2)
		switch {
		case rw.Z > 0:
			rw.CZ = q
		case rw.Z < 0:
			rw.CZ = -q
		default:
			rw.CZ = 0
		}
	}
}
