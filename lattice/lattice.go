// Copyright (c) 2023 Colin McRae

// Package lattice implements the basis-reduction step of the Siegel
// reduction algorithm: given a triangular basis and the coordinates of a
// shortest lattice vector, it produces a unimodular change of basis that
// puts the shortest vector first, re-triangularizing as it goes.
//
// This is a specialization of Hermite/Korkine-Zolotarev-style reduction to
// "shortest vector first"; it does not reduce the remaining successive
// minima.
package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/irojkov-ph/siegel/givens"
)

// largeEntryThresh bounds the entries of the accumulated unimodular
// transforms. Entries beyond it risk overflow in subsequent int64 products.
const largeEntryThresh = int64(math.MaxInt32)

// Reduction is the result of reducing a triangular basis against a
// shortest-vector coordinate.
type Reduction struct {
	// Basis is the reduced basis T' = T Z, upper-triangular, whose first
	// column realizes (up to sign) the shortest vector supplied by the
	// oracle.
	Basis *mat.Dense
	// Change is the unimodular change of basis Z, in row-major order with
	// det(Z) = 1.
	Change []int64
	// InverseChange is the exact integer inverse of Change, accumulated
	// from the inverses of the 2x2 blocks that compose it, so no floating
	// point inversion is ever needed.
	InverseChange []int64
}

// Reduce computes a unimodular change of basis Z such that the first column
// of T Z is, up to sign, the lattice vector T z. basis must be square and
// upper-triangular; z holds the integer coordinates of a shortest nonzero
// lattice vector, as supplied by an Oracle. Neither input is mutated.
//
// Columns are processed from the last down to the second. At column j the
// pair (z[j-1], accumulator) is mapped to (gcd, 0) by the inverse of a 2x2
// unimodular block; the block itself is applied to columns j-1 and j of Z
// and of the working basis, and a rotation restores the triangular form the
// column operation disturbed. A zero gcd means both coordinates are zero;
// that pair contributes the identity block and is not an error.
func Reduce(basis *mat.Dense, z []int64) (*Reduction, error) {
	numRows, numCols := basis.Dims()
	if numRows != numCols {
		return nil, fmt.Errorf("Reduce: basis is %d x %d, not square", numRows, numCols)
	}
	if len(z) != numRows {
		return nil, fmt.Errorf(
			"Reduce: coordinate vector is %d-long for a %d x %d basis", len(z), numRows, numCols,
		)
	}

	g := numRows
	reduced := mat.DenseCopyOf(basis)
	change := identityInt64(g)
	inverseChange := identityInt64(g)
	accumulator := z[g-1]
	for j := g - 1; j >= 1; j-- {
		z1, z2 := z[j-1], accumulator
		d, a, b := extendedGCD(z1, z2)
		if d == 0 {
			// Both coordinates are zero; the local block is the identity
			continue
		}
		p, q := z1/d, z2/d

		// Right-multiply columns j-1 and j of Z and the working basis by
		//      _        _
		// U = |  p   -b  |  whose inverse maps [z1, z2]^t to [d, 0]^t.
		//     |_ q    a _|
		columnOp(change, g, j-1, j, p, -b, q, a)
		denseColumnOp(reduced, j-1, j, float64(p), float64(-b), float64(q), float64(a))

		// Left-multiply rows j-1 and j of the running inverse by
		//       _        _
		// U^-1=|  a    b  |  (det U = (a z1 + b z2)/d = 1).
		//      |_ -q   p _|
		rowOp(inverseChange, g, j-1, j, a, b, -q, p)
		if maxAbs(change) > largeEntryThresh || maxAbs(inverseChange) > largeEntryThresh {
			return nil, fmt.Errorf(
				"Reduce: an entry of the change of basis at column %d is large enough to risk overflow", j,
			)
		}

		// The column operation put a nonzero entry below the diagonal in
		// column j-1; rotate it away.
		rotation := givens.Zeroing(reduced.At(j-1, j-1), reduced.At(j, j-1))
		rotation.ApplyRows(reduced, j-1, j, j-1)
		reduced.Set(j, j-1, 0.0)

		accumulator = d
	}
	return &Reduction{Basis: reduced, Change: change, InverseChange: inverseChange}, nil
}

// extendedGCD returns d = gcd(x, y) >= 0 along with Bezout coefficients
// a and b satisfying a x + b y = d. gcd(0, 0) is 0 with a = b = 0.
func extendedGCD(x, y int64) (d, a, b int64) {
	if x == 0 && y == 0 {
		return 0, 0, 0
	}
	// Invariants: r0 = a0 x + b0 y and r1 = a1 x + b1 y
	r0, r1 := x, y
	a0, a1 := int64(1), int64(0)
	b0, b1 := int64(0), int64(1)
	for r1 != 0 {
		quotient := r0 / r1
		r0, r1 = r1, r0-quotient*r1
		a0, a1 = a1, a0-quotient*a1
		b0, b1 = b1, b0-quotient*b1
	}
	if r0 < 0 {
		return -r0, -a0, -b0
	}
	return r0, a0, b0
}

// identityInt64 returns the dim x dim identity matrix in row-major order.
func identityInt64(dim int) []int64 {
	retVal := make([]int64, dim*dim)
	for i := 0; i < dim; i++ {
		retVal[i*dim+i] = 1
	}
	return retVal
}

// columnOp right-multiplies columns j0 and j1 of the numRows x numRows
// matrix x by the 2x2 matrix with rows [u00, u01] and [u10, u11].
func columnOp(x []int64, numRows, j0, j1 int, u00, u01, u10, u11 int64) {
	for i := 0; i < numRows; i++ {
		c0, c1 := x[i*numRows+j0], x[i*numRows+j1]
		x[i*numRows+j0] = u00*c0 + u10*c1
		x[i*numRows+j1] = u01*c0 + u11*c1
	}
}

// rowOp left-multiplies rows i0 and i1 of the numRows x numRows matrix x
// by the 2x2 matrix with rows [u00, u01] and [u10, u11].
func rowOp(x []int64, numRows, i0, i1 int, u00, u01, u10, u11 int64) {
	for k := 0; k < numRows; k++ {
		r0, r1 := x[i0*numRows+k], x[i1*numRows+k]
		x[i0*numRows+k] = u00*r0 + u01*r1
		x[i1*numRows+k] = u10*r0 + u11*r1
	}
}

// denseColumnOp right-multiplies columns j0 and j1 of m by the 2x2 matrix
// with rows [u00, u01] and [u10, u11].
func denseColumnOp(m *mat.Dense, j0, j1 int, u00, u01, u10, u11 float64) {
	numRows, _ := m.Dims()
	for i := 0; i < numRows; i++ {
		c0, c1 := m.At(i, j0), m.At(i, j1)
		m.Set(i, j0, u00*c0+u10*c1)
		m.Set(i, j1, u01*c0+u11*c1)
	}
}

func maxAbs(x []int64) int64 {
	var retVal int64
	for i := 0; i < len(x); i++ {
		entry := x[i]
		if entry < 0 {
			entry = -entry
		}
		if entry > retVal {
			retVal = entry
		}
	}
	return retVal
}
