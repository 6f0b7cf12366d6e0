package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapacitorValidation(t *testing.T) {
	_, err := NewCapacitor("C1", 0, 1, -1e-6)
	require.Error(t, err)
	_, err = NewCapacitor("C1", 0, 1, 0)
	require.NoError(t, err)
}

func TestCapacitorDCDegeneratesToOpen(t *testing.T) {
	c, err := NewCapacitor("C1", 0, GND, 1e-6)
	require.NoError(t, err)

	c.BeginStep(0)
	s := newSys(t, 1)
	require.NoError(t, c.Stamp(&StampContext{Sys: s, Scale: 1}))
	require.Equal(t, 0.0, s.GetA(0, 0))
	require.Equal(t, 0.0, s.GetZ(0))
}

func TestCapacitorTrapezoidalRoundTrip(t *testing.T) {
	// Committing the analytical steady state, then stepping from it,
	// must report zero companion current.
	c, err := NewCapacitor("C1", 0, GND, 1e-6)
	require.NoError(t, err)

	xStar := []float64{5.0}
	c.CommitStep(xStar) // DC commit: vPrev=5, iPrev=0

	c.BeginStep(1e-3)
	s := newSys(t, 1)
	require.NoError(t, c.Stamp(&StampContext{Sys: s, Scale: 1}))
	c.CommitStep(xStar)

	require.InDelta(t, 0.0, c.Current(), 1e-12)
	require.Equal(t, 5.0, c.Voltage())
}

func TestCapacitorCompanionParameters(t *testing.T) {
	c, err := NewCapacitor("C1", 0, 1, 2e-6)
	require.NoError(t, err)

	c.CommitStep([]float64{3.0, 0.0}) // vPrev=3, iPrev=0 (DC)
	c.BeginStep(1e-3)

	s := newSys(t, 2)
	require.NoError(t, c.Stamp(&StampContext{Sys: s, Scale: 1}))

	geq := 2 * 2e-6 / 1e-3 // 2C/dt = 4e-3
	require.InDelta(t, geq, s.GetA(0, 0), 1e-15)
	require.InDelta(t, -geq, s.GetA(0, 1), 1e-15)
	// Ieq = -(iPrev + Geq*vPrev) = -0.012, stamped as -Ieq on z[a]
	require.InDelta(t, 0.012, s.GetZ(0), 1e-15)
	require.InDelta(t, -0.012, s.GetZ(1), 1e-15)
}

func TestInductorCompanionParameters(t *testing.T) {
	l, err := NewInductor("L1", 0, 1, 10e-3)
	require.NoError(t, err)
	l.SetBranchIndex(2)

	// History: i=2mA, v=1V
	l.CommitStep([]float64{1.5, 0.5, 2e-3})
	l.BeginStep(1e-3)

	s := newSys(t, 3)
	require.NoError(t, l.Stamp(&StampContext{Sys: s, Scale: 1}))

	reff := 2 * 10e-3 / 1e-3 // 2L/dt = 20
	require.InDelta(t, -reff, s.GetA(2, 2), 1e-15)
	require.Equal(t, 1.0, s.GetA(2, 0))
	require.Equal(t, -1.0, s.GetA(2, 1))
	require.Equal(t, 1.0, s.GetA(0, 2))
	require.Equal(t, -1.0, s.GetA(1, 2))
	// rhs = -(Reff*iPrev + vPrev) = -(0.04 + 1.0)
	require.InDelta(t, -1.04, s.GetZ(2), 1e-15)
}

func TestInductorBeginStepRejectsZeroDt(t *testing.T) {
	l, err := NewInductor("L1", 0, 1, 1e-3)
	require.NoError(t, err)
	require.Panics(t, func() { l.BeginStep(0) })
}
