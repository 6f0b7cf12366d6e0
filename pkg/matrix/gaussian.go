package matrix

import (
	"math"
)

// Pivot magnitudes below this are treated as structural zeros.
const pivotThreshold = 1e-18

// Solver runs dense Gaussian elimination with partial pivoting.
// Elimination works on private scratch copies of A and z, reused
// between calls, so the stamped system survives the solve and can be
// re-solved after a diagonal boost.
type Solver struct {
	a []float64
	b []float64
}

// Solve computes x from sys. Returns -1 on success, or the 0-based row
// of the failing pivot so the caller can retry with a boosted diagonal.
func (gs *Solver) Solve(sys *System, x []float64) int {
	return gs.SolveRaw(sys.Mat(), sys.Size(), sys.RHS(), x)
}

// SolveRaw is Solve over raw row-major storage.
func (gs *Solver) SolveRaw(aIn []float64, n int, bIn []float64, x []float64) int {
	if n <= 0 {
		return -1
	}

	if len(gs.a) < n*n {
		gs.a = make([]float64, n*n)
		gs.b = make([]float64, n)
	}
	a := gs.a[:n*n]
	b := gs.b[:n]
	copy(a, aIn)
	copy(b, bIn)

	// Forward elimination
	for k := 0; k < n; k++ {
		pivot := k
		maxAbs := math.Abs(a[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(a[i*n+k]); v > maxAbs {
				maxAbs = v
				pivot = i
			}
		}

		if maxAbs < pivotThreshold {
			return k
		}

		if pivot != k {
			for j := k; j < n; j++ {
				a[k*n+j], a[pivot*n+j] = a[pivot*n+j], a[k*n+j]
			}
			b[k], b[pivot] = b[pivot], b[k]
		}

		akk := a[k*n+k]
		for i := k + 1; i < n; i++ {
			factor := a[i*n+k] / akk
			if factor == 0 {
				continue
			}
			a[i*n+k] = 0
			for j := k + 1; j < n; j++ {
				a[i*n+j] -= factor * a[k*n+j]
			}
			b[i] -= factor * b[k]
		}
	}

	// Back substitution
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i*n+j] * x[j]
		}
		x[i] = sum / a[i*n+i]
	}

	return -1
}
