// Copyright (c) 2023 Colin McRae

package lattice

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestExtendedGCD(t *testing.T) {
	testCases := []struct {
		x, y, expectedGCD int64
	}{
		{0, 0, 0},
		{0, 5, 5},
		{5, 0, 5},
		{-4, 0, 4},
		{0, -4, 4},
		{12, 18, 6},
		{-12, 18, 6},
		{12, -18, 6},
		{-12, -18, 6},
		{17, 5, 1},
		{1, 1000000, 1},
		{240, 46, 2},
	}
	for _, testCase := range testCases {
		d, a, b := extendedGCD(testCase.x, testCase.y)
		assert.Equalf(
			t, testCase.expectedGCD, d, "gcd(%d, %d) = %d", testCase.x, testCase.y, d,
		)
		assert.Equalf(
			t, d, a*testCase.x+b*testCase.y,
			"(%d)(%d) + (%d)(%d) != %d", a, testCase.x, b, testCase.y, d,
		)
	}
}

func TestReduceInputValidation(t *testing.T) {
	basis := mat.NewDense(2, 3, nil)
	_, err := Reduce(basis, []int64{1, 0})
	assert.Error(t, err)

	square := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	_, err = Reduce(square, []int64{1, 0, 0})
	assert.Error(t, err)
}

func TestReducePutsShortestVectorFirst(t *testing.T) {
	const numTests = 50
	const genus = 4
	const seed = 54103
	const tolerance = 1.e-10

	rand.Seed(seed)
	for testNbr := 0; testNbr < numTests; testNbr++ {
		basis := randomUpperTriangular(genus)
		basisCopy := mat.DenseCopyOf(basis)
		z, err := EnumerationOracle{}.ShortestVector(basis)
		require.NoError(t, err)
		reduction, err := Reduce(basis, z)
		require.NoError(t, err)

		// Z Z^-1 = I, exactly
		assertInversePair(t, reduction.Change, reduction.InverseChange, genus)

		// The reduced basis is upper-triangular
		for i := 1; i < genus; i++ {
			for j := 0; j < i; j++ {
				assert.Truef(
					t, math.Abs(reduction.Basis.At(i, j)) <= tolerance,
					"test %d: reduced basis entry (%d, %d) = %e is below the diagonal",
					testNbr, i, j, reduction.Basis.At(i, j),
				)
			}
		}

		// The first column of T Z has the norm of the oracle's vector
		oracleNorm := latticeVectorNorm(basis, z)
		firstColumnNorm := 0.0
		for i := 0; i < genus; i++ {
			firstColumnNorm += reduction.Basis.At(i, 0) * reduction.Basis.At(i, 0)
		}
		firstColumnNorm = math.Sqrt(firstColumnNorm)
		assert.InDeltaf(
			t, oracleNorm, firstColumnNorm, tolerance,
			"test %d: first column norm %e != shortest vector norm %e",
			testNbr, firstColumnNorm, oracleNorm,
		)

		// T'^t T' = Z^t (T^t T) Z: the rotations drop out of the Gram matrix
		zDense := int64ToDense(reduction.Change, genus)
		var gramBefore, gramAfter, congruence, product mat.Dense
		gramBefore.Mul(basis.T(), basis)
		gramAfter.Mul(reduction.Basis.T(), reduction.Basis)
		product.Mul(&gramBefore, zDense)
		congruence.Mul(zDense.T(), &product)
		assert.Truef(
			t, mat.EqualApprox(&gramAfter, &congruence, tolerance),
			"test %d: Gram matrix not preserved by congruence", testNbr,
		)

		// The input basis was not mutated
		assert.True(t, mat.Equal(basisCopy, basis))
	}
}

func TestReduceDegenerateCoordinates(t *testing.T) {
	const tolerance = 1.e-12

	basis := mat.NewDense(3, 3, []float64{
		2.0, 0.5, -1.0,
		0.0, 1.5, 0.25,
		0.0, 0.0, 3.0,
	})

	// Leading zeros put identity blocks in every pairwise step until the
	// nonzero coordinate is reached. The coordinates are not primitive, so
	// the first column realizes T z divided by gcd(z) = 2.
	reduction, err := Reduce(basis, []int64{0, 0, 2})
	assert.NoError(t, err)
	assertInversePair(t, reduction.Change, reduction.InverseChange, 3)
	expectedNorm := latticeVectorNorm(basis, []int64{0, 0, 1})
	firstColumnNorm := math.Hypot(
		math.Hypot(reduction.Basis.At(0, 0), reduction.Basis.At(1, 0)), reduction.Basis.At(2, 0),
	)
	assert.InDelta(t, expectedNorm, firstColumnNorm, tolerance)

	// The all-zero vector never comes from a real oracle, but it must not
	// crash: every local block degenerates to the identity
	reduction, err = Reduce(basis, []int64{0, 0, 0})
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 0, 0, 0, 1, 0, 0, 0, 1}, reduction.Change)
}

func TestReduceUnitCoordinate(t *testing.T) {
	basis := mat.NewDense(2, 2, []float64{1.0, 0.25, 0.0, 2.0})
	reduction, err := Reduce(basis, []int64{1, 0})
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 0, 0, 1}, reduction.Change)
	assert.True(t, mat.Equal(basis, reduction.Basis))
}

func TestEnumerationOracle(t *testing.T) {
	// On an orthogonal basis the shortest vector is the shortest column
	basis := mat.NewDense(2, 2, []float64{2.0, 0.0, 0.0, 3.0})
	z, err := EnumerationOracle{}.ShortestVector(basis)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 0}, z)

	// A skewed basis whose shortest vector is a nontrivial combination:
	// columns (1, 0) and (0.9, 0.5); the difference has norm sqrt(0.26)
	basis = mat.NewDense(2, 2, []float64{1.0, 0.9, 0.0, 0.5})
	z, err = EnumerationOracle{}.ShortestVector(basis)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, -1}, z)
	assert.InDelta(t, math.Sqrt(0.26), latticeVectorNorm(basis, z), 1.e-12)

	// Zero diagonal is rejected
	basis = mat.NewDense(2, 2, []float64{1.0, 0.9, 0.0, 0.0})
	_, err = EnumerationOracle{}.ShortestVector(basis)
	assert.Error(t, err)
}

func TestEnumerationOracleAgainstExhaustion(t *testing.T) {
	const numTests = 25
	const genus = 3
	const seed = 60601
	const searchBound = 6
	const tolerance = 1.e-10

	rand.Seed(seed)
	for testNbr := 0; testNbr < numTests; testNbr++ {
		basis := randomUpperTriangular(genus)
		z, err := EnumerationOracle{}.ShortestVector(basis)
		assert.NoError(t, err)
		oracleNorm := latticeVectorNorm(basis, z)

		// Exhaustive search over a box of coordinates
		bestNorm := math.Inf(1)
		coords := []int64{0, 0, 0}
		for i := -searchBound; i <= searchBound; i++ {
			for j := -searchBound; j <= searchBound; j++ {
				for k := -searchBound; k <= searchBound; k++ {
					if i == 0 && j == 0 && k == 0 {
						continue
					}
					coords[0], coords[1], coords[2] = int64(i), int64(j), int64(k)
					norm := latticeVectorNorm(basis, coords)
					if norm < bestNorm {
						bestNorm = norm
					}
				}
			}
		}
		assert.Truef(
			t, oracleNorm <= bestNorm+tolerance,
			"test %d: oracle norm %e exceeds exhaustive minimum %e", testNbr, oracleNorm, bestNorm,
		)
	}
}

// randomUpperTriangular draws an upper-triangular basis with diagonal
// entries bounded away from zero.
func randomUpperTriangular(genus int) *mat.Dense {
	retVal := mat.NewDense(genus, genus, nil)
	for i := 0; i < genus; i++ {
		retVal.Set(i, i, 0.5+2.0*rand.Float64())
		for j := i + 1; j < genus; j++ {
			retVal.Set(i, j, 4.0*(rand.Float64()-0.5))
		}
	}
	return retVal
}

func latticeVectorNorm(basis *mat.Dense, z []int64) float64 {
	numRows, numCols := basis.Dims()
	normSq := 0.0
	for i := 0; i < numRows; i++ {
		rowValue := 0.0
		for j := 0; j < numCols; j++ {
			rowValue += basis.At(i, j) * float64(z[j])
		}
		normSq += rowValue * rowValue
	}
	return math.Sqrt(normSq)
}

func assertInversePair(t *testing.T, x, y []int64, dim int) {
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var entry int64
			for k := 0; k < dim; k++ {
				entry += x[i*dim+k] * y[k*dim+j]
			}
			expected := int64(0)
			if i == j {
				expected = 1
			}
			assert.Equalf(t, expected, entry, "(Z Z^-1)[%d][%d] = %d", i, j, entry)
		}
	}
}

func int64ToDense(x []int64, dim int) *mat.Dense {
	retVal := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			retVal.Set(i, j, float64(x[i*dim+j]))
		}
	}
	return retVal
}
