// Copyright (c) 2023 Colin McRae

// Package cmat represents square complex matrices as paired real and
// imaginary parts, each held in a gonum dense matrix. Arithmetic on the
// complex matrix is expressed through gonum operations on the parts, so
// the one operation gonum does not provide for complex matrices -- a
// general inverse -- is obtained from the real 2n x 2n embedding
//
//	        _         _
//	X  ->  |  Re  -Im  |
//	       |_ Im   Re _|
//
// whose inverse is the embedding of X^-1.
package cmat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularMatrix is returned, wrapped, when a matrix to be inverted
// is singular.
var ErrSingularMatrix = errors.New("matrix is singular")

type CMatrix struct {
	re, im *mat.Dense
	dim    int
}

// New returns a dim x dim complex matrix with 0s in each entry. If
// dim < 1, an error is returned.
func New(dim int) (*CMatrix, error) {
	if dim < 1 {
		return nil, fmt.Errorf("CMatrix.New: illegal dimension %d", dim)
	}
	return &CMatrix{
		re:  mat.NewDense(dim, dim, nil),
		im:  mat.NewDense(dim, dim, nil),
		dim: dim,
	}, nil
}

// NewFromComplexArray creates a matrix from input, interpreted in row-major
// order with dimensions dim x dim. If the dimension is not positive or does
// not match the length of the input, an error is returned.
func NewFromComplexArray(input []complex128, dim int) (*CMatrix, error) {
	if len(input) != dim*dim {
		return nil, fmt.Errorf(
			"CMatrix.NewFromComplexArray: length %d of input does not match dimension %d",
			len(input), dim,
		)
	}
	retVal, err := New(dim)
	if err != nil {
		return nil, fmt.Errorf("CMatrix.NewFromComplexArray: %s", err.Error())
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			retVal.re.Set(i, j, real(input[i*dim+j]))
			retVal.im.Set(i, j, imag(input[i*dim+j]))
		}
	}
	return retVal, nil
}

// NewFromParts creates a matrix with the given real and imaginary parts.
// Both parts must be square with equal dimensions, or an error is returned.
// The parts are deep-copied.
func NewFromParts(re, im *mat.Dense) (*CMatrix, error) {
	reRows, reCols := re.Dims()
	imRows, imCols := im.Dims()
	if reRows != reCols || imRows != imCols || reRows != imRows {
		return nil, fmt.Errorf(
			"CMatrix.NewFromParts: mismatched or non-square parts %dx%d and %dx%d",
			reRows, reCols, imRows, imCols,
		)
	}
	return &CMatrix{
		re:  mat.DenseCopyOf(re),
		im:  mat.DenseCopyOf(im),
		dim: reRows,
	}, nil
}

// FromReal creates a matrix with real part re and zero imaginary part.
func FromReal(re *mat.Dense) (*CMatrix, error) {
	numRows, numCols := re.Dims()
	if numRows != numCols {
		return nil, fmt.Errorf("CMatrix.FromReal: non-square input %dx%d", numRows, numCols)
	}
	return &CMatrix{
		re:  mat.DenseCopyOf(re),
		im:  mat.NewDense(numRows, numRows, nil),
		dim: numRows,
	}, nil
}

// Identity returns the dim x dim identity matrix. If dim < 1, an error
// is returned.
func Identity(dim int) (*CMatrix, error) {
	retVal, err := New(dim)
	if err != nil {
		return nil, fmt.Errorf("CMatrix.Identity: %s", err.Error())
	}
	for i := 0; i < dim; i++ {
		retVal.re.Set(i, i, 1.0)
	}
	return retVal, nil
}

// Dim returns the dimension of cm.
func (cm *CMatrix) Dim() int {
	return cm.dim
}

// Get returns the value in row i, column j of cm.
func (cm *CMatrix) Get(i, j int) (complex128, error) {
	if i < 0 || cm.dim <= i {
		return 0, fmt.Errorf("CMatrix.Get: index i = %d outside range {0, ... %d}", i, cm.dim-1)
	}
	if j < 0 || cm.dim <= j {
		return 0, fmt.Errorf("CMatrix.Get: index j = %d outside range {0, ... %d}", j, cm.dim-1)
	}
	return complex(cm.re.At(i, j), cm.im.At(i, j)), nil
}

// Set sets the value in row i, column j of cm to x.
func (cm *CMatrix) Set(i, j int, x complex128) error {
	if i < 0 || cm.dim <= i {
		return fmt.Errorf("CMatrix.Set: index i = %d outside range {0, ... %d}", i, cm.dim-1)
	}
	if j < 0 || cm.dim <= j {
		return fmt.Errorf("CMatrix.Set: index j = %d outside range {0, ... %d}", j, cm.dim-1)
	}
	cm.re.Set(i, j, real(x))
	cm.im.Set(i, j, imag(x))
	return nil
}

// Real returns a deep copy of the real part of cm.
func (cm *CMatrix) Real() *mat.Dense {
	return mat.DenseCopyOf(cm.re)
}

// Imag returns a deep copy of the imaginary part of cm.
func (cm *CMatrix) Imag() *mat.Dense {
	return mat.DenseCopyOf(cm.im)
}

// Copy copies x to cm and returns cm. This is a deep copy.
func (cm *CMatrix) Copy(x *CMatrix) *CMatrix {
	cm.re = mat.DenseCopyOf(x.re)
	cm.im = mat.DenseCopyOf(x.im)
	cm.dim = x.dim
	return cm
}

// Add replaces the contents of cm with x + y and returns cm. If the
// dimensions of x and y do not match, an error is returned.
func (cm *CMatrix) Add(x, y *CMatrix) (*CMatrix, error) {
	if x.dim != y.dim {
		return nil, fmt.Errorf(
			"CMatrix.Add: mismatched dimensions for operands x (%d) and y (%d)", x.dim, y.dim,
		)
	}
	var re, im mat.Dense
	re.Add(x.re, y.re)
	im.Add(x.im, y.im)
	cm.re = &re
	cm.im = &im
	cm.dim = x.dim
	return cm, nil
}

// Sub replaces the contents of cm with x - y and returns cm. If the
// dimensions of x and y do not match, an error is returned.
func (cm *CMatrix) Sub(x, y *CMatrix) (*CMatrix, error) {
	if x.dim != y.dim {
		return nil, fmt.Errorf(
			"CMatrix.Sub: mismatched dimensions for operands x (%d) and y (%d)", x.dim, y.dim,
		)
	}
	var re, im mat.Dense
	re.Sub(x.re, y.re)
	im.Sub(x.im, y.im)
	cm.re = &re
	cm.im = &im
	cm.dim = x.dim
	return cm, nil
}

// Mul replaces the contents of cm with the matrix product xy and returns cm.
// If the dimensions of x and y do not match, an error is returned.
//
// With x = a+bi and y = c+di, the product is (ac - bd) + (ad + bc)i, four
// real matrix products.
func (cm *CMatrix) Mul(x, y *CMatrix) (*CMatrix, error) {
	if x.dim != y.dim {
		return nil, fmt.Errorf(
			"CMatrix.Mul: mismatched dimensions for operands x (%d) and y (%d)", x.dim, y.dim,
		)
	}
	var ac, bd, ad, bc, re, im mat.Dense
	ac.Mul(x.re, y.re)
	bd.Mul(x.im, y.im)
	ad.Mul(x.re, y.im)
	bc.Mul(x.im, y.re)
	re.Sub(&ac, &bd)
	im.Add(&ad, &bc)
	cm.re = &re
	cm.im = &im
	cm.dim = x.dim
	return cm, nil
}

// Transpose replaces the contents of cm with the transpose of x and
// returns cm. This is the plain transpose, not the conjugate transpose.
func (cm *CMatrix) Transpose(x *CMatrix) *CMatrix {
	re := mat.NewDense(x.dim, x.dim, nil)
	im := mat.NewDense(x.dim, x.dim, nil)
	re.CloneFrom(x.re.T())
	im.CloneFrom(x.im.T())
	cm.re = re
	cm.im = im
	cm.dim = x.dim
	return cm
}

// Inverse replaces the contents of cm with the inverse of x and returns cm.
// If x is singular, an error wrapping ErrSingularMatrix is returned and cm
// is unchanged.
func (cm *CMatrix) Inverse(x *CMatrix) (*CMatrix, error) {
	n := x.dim
	embedding := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			embedding.Set(i, j, x.re.At(i, j))
			embedding.Set(i+n, j+n, x.re.At(i, j))
			embedding.Set(i, j+n, -x.im.At(i, j))
			embedding.Set(i+n, j, x.im.At(i, j))
		}
	}
	var embeddedInverse mat.Dense
	if err := embeddedInverse.Inverse(embedding); err != nil {
		// gonum reports ill-conditioned matrices with a mat.Condition error
		// but still computes the inverse; an infinite condition number, or
		// any other failure, is a genuinely singular input.
		cond, nearSingular := err.(mat.Condition)
		if !nearSingular || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("CMatrix.Inverse: %w", ErrSingularMatrix)
		}
	}
	re := mat.NewDense(n, n, nil)
	im := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re.Set(i, j, embeddedInverse.At(i, j))
			im.Set(i, j, embeddedInverse.At(i+n, j))
		}
	}
	cm.re = re
	cm.im = im
	cm.dim = n
	return cm, nil
}

// Equals returns whether all corresponding entries of cm and x are within
// tolerance of each other, separately in their real and imaginary parts.
// Matrices of different dimensions are never equal.
func (cm *CMatrix) Equals(x *CMatrix, tolerance float64) bool {
	if cm.dim != x.dim {
		return false
	}
	return mat.EqualApprox(cm.re, x.re, tolerance) && mat.EqualApprox(cm.im, x.im, tolerance)
}

// String returns a string representing cm with rows separated by newlines.
func (cm *CMatrix) String() string {
	var sb strings.Builder
	for i := 0; i < cm.dim; i++ {
		for j := 0; j < cm.dim; j++ {
			sb.WriteString(fmt.Sprintf("%g+%gi, ", cm.re.At(i, j), cm.im.At(i, j)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
