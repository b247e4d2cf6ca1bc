// Copyright (c) 2023 Colin McRae

// Package siegel reduces a point of the Siegel upper half space -- a complex
// symmetric g x g matrix with positive-definite imaginary part -- to a
// canonical representative of its orbit under the symplectic group.
//
// Each pass of the reduction loop factors the imaginary part, asks the
// shortest-vector oracle for the coordinates of a minimal lattice vector,
// applies the resulting unimodular change of basis, recenters the real part
// into [-1/2, 1/2], and either stops or inverts the first coordinate and
// goes around again. The accumulated symplectic transform is kept as a
// sequence of exact integral generators.
package siegel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/irojkov-ph/siegel/cmat"
	"github.com/irojkov-ph/siegel/lattice"
	"github.com/irojkov-ph/siegel/symplectic"
)

// DefaultMaxIterations bounds the reduction loop when the caller does not
// supply a cap of its own. The algorithm is expected to terminate in far
// fewer passes for well-conditioned input; the cap converts numerical drift
// into a reported error rather than an infinite loop.
const DefaultMaxIterations = 256

var (
	// ErrNotPositiveDefinite is returned, wrapped, when the symmetrized
	// imaginary part of the working matrix fails its Cholesky factorization.
	ErrNotPositiveDefinite = errors.New("imaginary part is not positive-definite")
	// ErrDidNotConverge is returned, wrapped, when the iteration cap is
	// exceeded.
	ErrDidNotConverge = errors.New("reduction did not converge within the iteration limit")
)

// Reduce maps tau to a fundamental-domain representative. It returns the
// accumulated symplectic transform Gamma and the reduced matrix M, which is
// the image of tau under the Moebius-type action of Gamma.
//
// tau must have a symmetric positive-definite imaginary part; if it does
// not, an error wrapping ErrNotPositiveDefinite is returned. The optional
// trailing argument caps the number of reduction passes, defaulting to
// DefaultMaxIterations; exceeding the cap returns an error wrapping
// ErrDidNotConverge. tau is not mutated.
//
// Real-part centering rounds each entry of Re(M) to the nearest integer,
// breaking ties at +-1/2 toward the even integer (math.RoundToEven), so
// results on fundamental-domain boundaries are reproducible.
func Reduce(
	tau *cmat.CMatrix, oracle lattice.Oracle, maxIterationsOptional ...int,
) (*symplectic.Transform, *cmat.CMatrix, error) {
	maxIterations := DefaultMaxIterations
	if len(maxIterationsOptional) > 0 {
		maxIterations = maxIterationsOptional[0]
	}
	g := tau.Dim()
	gamma, err := symplectic.NewTransform(g)
	if err != nil {
		return nil, nil, fmt.Errorf("Reduce: could not create the identity transform: %s", err.Error())
	}
	m := new(cmat.CMatrix).Copy(tau)

	for iteration := 0; iteration < maxIterations; iteration++ {
		// Factor the symmetrized imaginary part as Y = T^t T with T upper-
		// triangular. Symmetrizing is numerical hygiene: the congruence and
		// inversion steps below leave Y symmetric only up to round-off.
		basis, err := choleskyUpper(symmetrized(m.Imag()))
		if err != nil {
			return nil, nil, fmt.Errorf("Reduce: in iteration %d: %w", iteration, err)
		}

		// Put a shortest lattice vector first in the basis.
		z, err := oracle.ShortestVector(basis)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"Reduce: the oracle failed in iteration %d: %s", iteration, err.Error(),
			)
		}
		reduction, err := lattice.Reduce(basis, z)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"Reduce: could not reduce the basis in iteration %d: %s", iteration, err.Error(),
			)
		}

		// M <- U^t Re(M) U + i T'^t T', the action of diag(U^t, U^-1).
		u := int64ToDense(reduction.Change, g)
		var newRe, newIm, product mat.Dense
		product.Mul(m.Real(), u)
		newRe.Mul(u.T(), &product)
		newIm.Mul(reduction.Basis.T(), reduction.Basis)
		if m, err = cmat.NewFromParts(&newRe, &newIm); err != nil {
			return nil, nil, fmt.Errorf(
				"Reduce: could not assemble the updated matrix in iteration %d: %s",
				iteration, err.Error(),
			)
		}
		gamma.Append(symplectic.BasisChange{U: reduction.Change, UInv: reduction.InverseChange})

		// Center the real part into [-1/2, 1/2].
		if err = translate(m, gamma); err != nil {
			return nil, nil, fmt.Errorf("Reduce: in iteration %d: %s", iteration, err.Error())
		}

		topLeft, err := m.Get(0, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("Reduce: could not get M[0][0]: %s", err.Error())
		}
		if cmplx.Abs(topLeft) >= 1.0 {
			// One final centering; the loop body centered M already, so this
			// is a no-op except when round-off moved an entry across +-1/2.
			if err = translate(m, gamma); err != nil {
				return nil, nil, fmt.Errorf("Reduce: in the final centering: %s", err.Error())
			}
			return gamma, m, nil
		}

		// |M[0][0]| < 1: invert the first coordinate and keep reducing.
		if m, err = symplectic.Apply(symplectic.InversionMatrix(g), m); err != nil {
			return nil, nil, fmt.Errorf("Reduce: could not invert in iteration %d: %w", iteration, err)
		}
		gamma.Append(symplectic.Inversion{})
	}
	return nil, nil, fmt.Errorf("Reduce: %w of %d passes", ErrDidNotConverge, maxIterations)
}

// IsReduced returns whether tau lies in the fundamental domain within
// tolerance: every entry of Re(tau) has magnitude at most 1/2, the top-left
// entry has modulus at least 1, and Im(tau) is symmetric positive-definite.
func IsReduced(tau *cmat.CMatrix, tolerance float64) bool {
	g := tau.Dim()
	re, im := tau.Real(), tau.Imag()
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			if math.Abs(re.At(i, j)) > 0.5+tolerance {
				return false
			}
			if math.Abs(im.At(i, j)-im.At(j, i)) > tolerance {
				return false
			}
		}
	}
	topLeft, err := tau.Get(0, 0)
	if err != nil || cmplx.Abs(topLeft) < 1.0-tolerance {
		return false
	}
	_, err = choleskyUpper(symmetrized(im))
	return err == nil
}

// translate shifts m by b = -round(Re(m)) and records the translation
// generator, unless b is zero. Entries are rounded half to even, and b is
// built from the symmetrized real part so it is symmetric even when
// round-off has perturbed Re(m) off symmetry.
func translate(m *cmat.CMatrix, gamma *symplectic.Transform) error {
	g := m.Dim()
	re := m.Real()
	b := make([]int64, g*g)
	bDense := mat.NewDense(g, g, nil)
	isZero := true
	for i := 0; i < g; i++ {
		for j := i; j < g; j++ {
			entry := -int64(math.RoundToEven(0.5 * (re.At(i, j) + re.At(j, i))))
			b[i*g+j] = entry
			b[j*g+i] = entry
			bDense.Set(i, j, float64(entry))
			bDense.Set(j, i, float64(entry))
			if entry != 0 {
				isZero = false
			}
		}
	}
	if isZero {
		return nil
	}
	shift, err := cmat.FromReal(bDense)
	if err != nil {
		return fmt.Errorf("translate: could not build the shift: %s", err.Error())
	}
	if _, err = m.Add(m, shift); err != nil {
		return fmt.Errorf("translate: could not shift M: %s", err.Error())
	}
	gamma.Append(symplectic.Translation{B: b})
	return nil
}

// symmetrized returns (y + y^t) / 2.
func symmetrized(y *mat.Dense) *mat.Dense {
	numRows, _ := y.Dims()
	retVal := mat.NewDense(numRows, numRows, nil)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numRows; j++ {
			retVal.Set(i, j, 0.5*(y.At(i, j)+y.At(j, i)))
		}
	}
	return retVal
}

// choleskyUpper factors the symmetric matrix y as T^t T and returns the
// upper-triangular factor T. If y is not positive-definite, an error
// wrapping ErrNotPositiveDefinite is returned.
func choleskyUpper(y *mat.Dense) (*mat.Dense, error) {
	numRows, _ := y.Dims()
	sym := mat.NewSymDense(numRows, nil)
	for i := 0; i < numRows; i++ {
		for j := i; j < numRows; j++ {
			sym.SetSym(i, j, y.At(i, j))
		}
	}
	var factorization mat.Cholesky
	if ok := factorization.Factorize(sym); !ok {
		return nil, fmt.Errorf("choleskyUpper: %w", ErrNotPositiveDefinite)
	}
	var upper mat.TriDense
	factorization.UTo(&upper)
	return mat.DenseCopyOf(&upper), nil
}

// int64ToDense converts a row-major integer matrix to a dense float matrix.
func int64ToDense(x []int64, dim int) *mat.Dense {
	retVal := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			retVal.Set(i, j, float64(x[i*dim+j]))
		}
	}
	return retVal
}
