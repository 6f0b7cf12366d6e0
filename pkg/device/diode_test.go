package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aspice/pkg/matrix"
)

// residualAt evaluates r(x) = A*x - z for the Newton stamp of a single
// nonlinear device, with limiting referenced to x itself (identity).
func residualAt(t *testing.T, sys *matrix.System, nl NonLinear, x []float64) []float64 {
	t.Helper()
	sys.Clear()
	nl.ComputeLimited(&LimitContext{X: x, XOld: x})
	require.NoError(t, nl.StampNewton(&StampContext{Sys: sys, Scale: 1.0}, x))
	r := make([]float64, sys.Size())
	sys.Residual(x, r)
	return r
}

// checkJacobianFD compares the analytical Jacobian embedded in the
// Newton stamp against two-point finite differences, row by row.
func checkJacobianFD(t *testing.T, sys *matrix.System, nl NonLinear, x []float64, relTol float64) {
	t.Helper()
	const h = 1e-7
	n := sys.Size()

	r0 := residualAt(t, sys, nl, x)

	// Analytical Jacobian = A from the stamp at x.
	sys.Clear()
	nl.ComputeLimited(&LimitContext{X: x, XOld: x})
	require.NoError(t, nl.StampNewton(&StampContext{Sys: sys, Scale: 1.0}, x))
	analytic := make([]float64, n*n)
	copy(analytic, sys.Mat())

	for j := 0; j < n; j++ {
		xp := append([]float64(nil), x...)
		xp[j] += h
		rp := residualAt(t, sys, nl, xp)
		for i := 0; i < n; i++ {
			num := (rp[i] - r0[i]) / h
			ana := analytic[i*n+j]
			if ana == 0 && num == 0 {
				continue
			}
			scale := maxf(absf(ana), absf(num))
			if scale < 1e-9 {
				continue // below current resolution
			}
			require.InDelta(t, ana, num, relTol*scale,
				"jacobian entry (%d,%d): analytic %g vs fd %g", i, j, ana, num)
		}
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func TestDiodeValidation(t *testing.T) {
	p := DefaultDiodeParams()
	p.Is = 0
	_, err := NewDiode("D1", 0, 1, p)
	require.Error(t, err)

	p = DefaultDiodeParams()
	p.N = -1
	_, err = NewDiode("D1", 0, 1, p)
	require.Error(t, err)

	_, err = NewDiode("D1", 0, 1, DefaultDiodeParams())
	require.NoError(t, err)
}

func TestDiodeJacobianFiniteDifference(t *testing.T) {
	sys := newSys(t, 2)
	d, err := NewDiode("D1", 0, 1, DefaultDiodeParams())
	require.NoError(t, err)

	// Forward biased, reverse biased, and near zero.
	for _, v := range [][]float64{{0.65, 0.0}, {0.2, 0.5}, {0.01, 0.0}} {
		checkJacobianFD(t, sys, d, v, 0.015)
	}
}

func TestDiodeStampIsExactAtLinearizationPoint(t *testing.T) {
	// r(x_op) must equal the device current at the operating point:
	// row a carries +Id, row c carries -Id.
	sys := newSys(t, 2)
	d, err := NewDiode("D1", 0, 1, DefaultDiodeParams())
	require.NoError(t, err)

	x := []float64{0.7, 0.0}
	r := residualAt(t, sys, d, x)
	id := d.Current(x)
	require.Greater(t, id, 0.0)
	require.InEpsilon(t, id, r[0], 1e-9)
	require.InEpsilon(t, -id, r[1], 1e-9)
}

func TestDiodeZenerBreakdown(t *testing.T) {
	p := DefaultDiodeParams()
	p.Bv = 5.0
	p.Ibv = 1e-3
	d, err := NewDiode("DZ", 0, 1, p)
	require.NoError(t, err)

	sys := newSys(t, 2)

	// Past breakdown the branch is the PWL segment g = Ibv/Bv with
	// intercept -g*Bv.
	x := []float64{-6.0, 0.0}
	r := residualAt(t, sys, d, x)
	g := p.Ibv / p.Bv
	// gmin adds a ~1e-11 skew to the stamped row; tolerance covers it.
	wantI := g*(-6.0) - g*p.Bv
	require.InDelta(t, wantI, r[0], 1e-10)
	require.InDelta(t, wantI, d.Current(x), 1e-12)

	// Inside breakdown it behaves as a normal reverse diode.
	x = []float64{-3.0, 0.0}
	r = residualAt(t, sys, d, x)
	require.InDelta(t, -p.Is, r[0], 1e-3*p.Is+1e-15)
}
