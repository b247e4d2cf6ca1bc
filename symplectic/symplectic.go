// Copyright (c) 2023 Colin McRae

// Package symplectic represents elements of the symplectic group acting on
// the Siegel upper half space. A Transform is kept as a sequence of tagged
// elementary generators -- basis change, translation, inversion -- each with
// exact integer entries; the dense 2g x 2g matrix is materialized only on
// demand, so the accumulated transform never drifts.
package symplectic

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/irojkov-ph/siegel/cmat"
)

// Generator is one elementary symplectic matrix, identified by how the
// reduction produced it.
type Generator interface {
	// matrix materializes the dense 2g x 2g form of the generator.
	matrix(genus int) *mat.Dense
}

// BasisChange is the generator
//
//	 _           _
//	|  U^t   0    |
//	|_  0   U^-1 _|
//
// acting on tau as U^t tau U. U is unimodular with exact integer inverse
// UInv, both g x g in row-major order.
type BasisChange struct {
	U    []int64
	UInv []int64
}

// Translation is the generator
//
//	 _       _
//	|  I   B  |
//	|_ 0   I _|
//
// acting on tau as tau + B. B is a symmetric integer g x g matrix in
// row-major order.
type Translation struct {
	B []int64
}

// Inversion is the fixed generator that inverts the first coordinate and
// leaves the rest alone; see InversionMatrix.
type Inversion struct{}

func (g BasisChange) matrix(genus int) *mat.Dense {
	retVal := mat.NewDense(2*genus, 2*genus, nil)
	for i := 0; i < genus; i++ {
		for j := 0; j < genus; j++ {
			retVal.Set(i, j, float64(g.U[j*genus+i])) // U^t
			retVal.Set(genus+i, genus+j, float64(g.UInv[i*genus+j]))
		}
	}
	return retVal
}

func (g Translation) matrix(genus int) *mat.Dense {
	retVal := mat.NewDense(2*genus, 2*genus, nil)
	for i := 0; i < 2*genus; i++ {
		retVal.Set(i, i, 1.0)
	}
	for i := 0; i < genus; i++ {
		for j := 0; j < genus; j++ {
			retVal.Set(i, genus+j, float64(g.B[i*genus+j]))
		}
	}
	return retVal
}

func (g Inversion) matrix(genus int) *mat.Dense {
	return InversionMatrix(genus)
}

// InversionMatrix returns the symplectic matrix
//
//	 _         _
//	|  A0   B0  |   A0 = D0 = diag(0, 1, ..., 1)
//	|  C0   D0  |   B0 = diag(-1, 0, ..., 0), C0 = diag(1, 0, ..., 0)
//	 -         -
//
// whose action sends tau[0][0] to -1/tau[0][0] when tau is diagonal, and is
// the identity on the remaining coordinates.
func InversionMatrix(genus int) *mat.Dense {
	retVal := mat.NewDense(2*genus, 2*genus, nil)
	for i := 1; i < genus; i++ {
		retVal.Set(i, i, 1.0)
		retVal.Set(genus+i, genus+i, 1.0)
	}
	retVal.Set(0, genus, -1.0)
	retVal.Set(genus, 0, 1.0)
	return retVal
}

// Transform is a product of elementary generators, stored in the order they
// were applied. Each new generator left-multiplies the accumulated matrix.
type Transform struct {
	genus      int
	generators []Generator
}

// NewTransform returns the identity transform for the given genus. If
// genus < 1, an error is returned.
func NewTransform(genus int) (*Transform, error) {
	if genus < 1 {
		return nil, fmt.Errorf("NewTransform: illegal genus %d", genus)
	}
	return &Transform{genus: genus}, nil
}

// Genus returns the genus the transform acts on.
func (t *Transform) Genus() int {
	return t.genus
}

// Append records g as the next generator; the materialized matrix becomes
// g Gamma, where Gamma is the matrix so far.
func (t *Transform) Append(g Generator) {
	t.generators = append(t.generators, g)
}

// Generators returns the recorded generators in application order. The
// returned slice is shared with the transform.
func (t *Transform) Generators() []Generator {
	return t.generators
}

// Matrix materializes the dense 2g x 2g matrix of the transform.
func (t *Transform) Matrix() *mat.Dense {
	retVal := mat.NewDense(2*t.genus, 2*t.genus, nil)
	for i := 0; i < 2*t.genus; i++ {
		retVal.Set(i, i, 1.0)
	}
	var product mat.Dense
	for _, g := range t.generators {
		product.Mul(g.matrix(t.genus), retVal)
		retVal.CloneFrom(&product)
	}
	return retVal
}

// Apply computes the generalized Moebius action
//
//	(A tau + B)(C tau + D)^-1
//
// of the 2g x 2g block matrix gamma = [[A, B], [C, D]] on the g x g complex
// matrix tau. If C tau + D is singular, an error wrapping
// cmat.ErrSingularMatrix is returned.
func Apply(gamma *mat.Dense, tau *cmat.CMatrix) (*cmat.CMatrix, error) {
	numRows, numCols := gamma.Dims()
	g := tau.Dim()
	if numRows != 2*g || numCols != 2*g {
		return nil, fmt.Errorf(
			"Apply: gamma is %d x %d, which does not match a genus %d period matrix",
			numRows, numCols, g,
		)
	}
	a, err := complexBlock(gamma, 0, 0, g)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not read block A: %s", err.Error())
	}
	b, err := complexBlock(gamma, 0, g, g)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not read block B: %s", err.Error())
	}
	c, err := complexBlock(gamma, g, 0, g)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not read block C: %s", err.Error())
	}
	d, err := complexBlock(gamma, g, g, g)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not read block D: %s", err.Error())
	}

	numerator, err := new(cmat.CMatrix).Mul(a, tau)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not compute A tau: %s", err.Error())
	}
	if _, err = numerator.Add(numerator, b); err != nil {
		return nil, fmt.Errorf("Apply: could not compute A tau + B: %s", err.Error())
	}
	denominator, err := new(cmat.CMatrix).Mul(c, tau)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not compute C tau: %s", err.Error())
	}
	if _, err = denominator.Add(denominator, d); err != nil {
		return nil, fmt.Errorf("Apply: could not compute C tau + D: %s", err.Error())
	}
	denominatorInverse, err := new(cmat.CMatrix).Inverse(denominator)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not invert C tau + D: %w", err)
	}
	retVal, err := new(cmat.CMatrix).Mul(numerator, denominatorInverse)
	if err != nil {
		return nil, fmt.Errorf("Apply: could not compute the action: %s", err.Error())
	}
	return retVal, nil
}

// IsSymplectic returns whether gamma^t J gamma = J within tolerance, where
// J = [[0, I], [-I, 0]] is the standard symplectic form. Matrices that are
// not square with even dimension are never symplectic.
func IsSymplectic(gamma *mat.Dense, tolerance float64) bool {
	numRows, numCols := gamma.Dims()
	if numRows != numCols || numRows%2 != 0 {
		return false
	}
	j := Form(numRows / 2)
	var jGamma, gammaTJGamma mat.Dense
	jGamma.Mul(j, gamma)
	gammaTJGamma.Mul(gamma.T(), &jGamma)
	return mat.EqualApprox(&gammaTJGamma, j, tolerance)
}

// Form returns the standard symplectic form J = [[0, I], [-I, 0]] for the
// given genus.
func Form(genus int) *mat.Dense {
	retVal := mat.NewDense(2*genus, 2*genus, nil)
	for i := 0; i < genus; i++ {
		retVal.Set(i, genus+i, 1.0)
		retVal.Set(genus+i, i, -1.0)
	}
	return retVal
}

// complexBlock copies the g x g block of gamma with upper-left corner at
// (row, col) into a complex matrix with zero imaginary part.
func complexBlock(gamma *mat.Dense, row, col, g int) (*cmat.CMatrix, error) {
	block := mat.NewDense(g, g, nil)
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			block.Set(i, j, gamma.At(row+i, col+j))
		}
	}
	return cmat.FromReal(block)
}
