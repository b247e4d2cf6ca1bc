// Copyright (c) 2023 Colin McRae

// Package givens constructs the numerically stable 2x2 rotations used to
// restore triangular form after a column operation disturbs it.
package givens

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rotation is the orthogonal matrix
//
//	     _       _
//	G = |  C  -S  |
//	    |_ S   C _|
//
// with C^2 + S^2 = 1, so det(G) = 1.
type Rotation struct {
	C, S float64
}

// Zeroing returns the rotation G such that G [x, y]^t = [r, 0]^t for some r.
//
// The branch on |y| >= |x| keeps the intermediate ratio at most 1 in
// magnitude, avoiding the overflow and cancellation of computing
// sqrt(x^2+y^2) directly when one magnitude dominates the other. When
// x = y = 0 there is nothing to rotate and the identity is returned.
func Zeroing(x, y float64) Rotation {
	if x == 0.0 && y == 0.0 {
		return Rotation{C: 1.0, S: 0.0}
	}
	if math.Abs(y) >= math.Abs(x) {
		t := x / y
		s := -1.0 / math.Sqrt(1.0+t*t)
		return Rotation{C: -t * s, S: s}
	}
	t := y / x
	c := 1.0 / math.Sqrt(1.0+t*t)
	return Rotation{C: c, S: -t * c}
}

// Apply returns G [x, y]^t.
func (g Rotation) Apply(x, y float64) (float64, float64) {
	return g.C*x - g.S*y, g.S*x + g.C*y
}

// ApplyRows left-multiplies rows i0 and i1 of m by g, restricted to the
// columns {fromCol,...,numCols-1}. Columns before fromCol are known to be
// zero in both rows when restoring a triangular matrix, so they are left
// untouched.
func (g Rotation) ApplyRows(m *mat.Dense, i0, i1, fromCol int) {
	_, numCols := m.Dims()
	for k := fromCol; k < numCols; k++ {
		x, y := m.At(i0, k), m.At(i1, k)
		m.Set(i0, k, g.C*x-g.S*y)
		m.Set(i1, k, g.S*x+g.C*y)
	}
}
