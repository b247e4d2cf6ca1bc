// Copyright (c) 2023 Colin McRae

package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Oracle supplies the coordinates of a shortest lattice vector. The
// reduction loop is written against this interface so a deterministic stub
// can stand in for a real solver in tests.
//
// Implementations must be deterministic for a given basis: the reduction is
// replayed and verified by re-applying the accumulated transform, which only
// works if the same basis always produces the same coordinates. Ties may be
// broken arbitrarily, but consistently.
type Oracle interface {
	// ShortestVector returns integer coordinates z such that basis . z is a
	// nonzero lattice vector of minimal Euclidean norm among the lattice
	// generated by the columns of basis. basis is square and
	// upper-triangular.
	ShortestVector(basis *mat.Dense) ([]int64, error)
}

// EnumerationOracle finds a shortest vector by depth-first enumeration over
// the triangular basis, in the manner of Fincke and Pohst. It is exact and
// deterministic, and entirely adequate for the low genera period matrices
// have in practice; it makes no attempt at the pruning or block strategies a
// general-purpose solver would need at high dimension.
type EnumerationOracle struct{}

// ShortestVector implements Oracle.
//
// Since the basis is upper-triangular, fixing the trailing coordinates
// z[j..g-1] fixes rows j..g-1 of the lattice vector. Coordinates are chosen
// from the last to the first; at each level the partial squared norm bounds
// the admissible interval for the next coordinate. The search radius starts
// at the shortest column of the basis and shrinks as better vectors are
// found. Candidates are visited in a fixed order, so ties break
// deterministically.
func (EnumerationOracle) ShortestVector(basis *mat.Dense) ([]int64, error) {
	numRows, numCols := basis.Dims()
	if numRows != numCols {
		return nil, fmt.Errorf("ShortestVector: basis is %d x %d, not square", numRows, numCols)
	}
	g := numRows
	for j := 0; j < g; j++ {
		if basis.At(j, j) == 0.0 {
			return nil, fmt.Errorf("ShortestVector: basis diagonal entry %d is zero", j)
		}
	}

	// The shortest column is both the initial search radius and the initial
	// candidate.
	best := make([]int64, g)
	bestNormSq := math.Inf(1)
	for j := 0; j < g; j++ {
		columnNormSq := 0.0
		for i := 0; i <= j; i++ {
			columnNormSq += basis.At(i, j) * basis.At(i, j)
		}
		if columnNormSq < bestNormSq {
			bestNormSq = columnNormSq
			for k := 0; k < g; k++ {
				best[k] = 0
			}
			best[j] = 1
		}
	}

	e := &enumeration{basis: basis, genus: g, coords: make([]int64, g), best: best, bestNormSq: bestNormSq}
	e.descend(g-1, 0.0)
	return e.best, nil
}

type enumeration struct {
	basis      *mat.Dense
	genus      int
	coords     []int64
	best       []int64
	bestNormSq float64
}

// descend chooses coordinate j given that coordinates j+1..g-1 are fixed and
// contribute partialNormSq from rows j+1..g-1 of the lattice vector.
func (e *enumeration) descend(j int, partialNormSq float64) {
	if j < 0 {
		if partialNormSq > 0.0 && partialNormSq < e.bestNormSq {
			e.bestNormSq = partialNormSq
			copy(e.best, e.coords)
		}
		return
	}

	// Row j of the lattice vector is coords[j] basis[j][j] + residual, and
	// its square may not exceed what remains of the search radius.
	residual := 0.0
	for k := j + 1; k < e.genus; k++ {
		residual += float64(e.coords[k]) * e.basis.At(j, k)
	}
	tjj := e.basis.At(j, j)
	room := e.bestNormSq - partialNormSq
	if room < 0.0 {
		return
	}
	halfWidth := math.Sqrt(room) * (1.0 + 1.0e-12)
	lo := int64(math.Ceil((-halfWidth - residual) / tjj))
	hi := int64(math.Floor((halfWidth - residual) / tjj))
	if tjj < 0.0 {
		lo, hi = int64(math.Ceil((halfWidth-residual)/tjj)), int64(math.Floor((-halfWidth-residual)/tjj))
	}
	for zj := lo; zj <= hi; zj++ {
		rowValue := float64(zj)*tjj + residual
		e.coords[j] = zj
		e.descend(j-1, partialNormSq+rowValue*rowValue)
	}
	e.coords[j] = 0
}
