package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBJTParamsValidation(t *testing.T) {
	p := DefaultBJTParams()
	p.Is = 0
	_, err := NewBjtNPN("Q1", 0, 1, 2, p)
	require.Error(t, err)

	p = DefaultBJTParams()
	p.BetaF = -10
	_, err = NewBjtPNP("Q1", 0, 1, 2, p)
	require.Error(t, err)

	_, err = NewBjtNPN("Q1", 0, 1, 2, DefaultBJTParams())
	require.NoError(t, err)
}

// Operating points exercised in the FD checks: active, saturation,
// cutoff, and reverse, for both polarities. Node order in x is
// (Vc, Vb, Ve). The stamp holds g_o fixed across the iteration (the
// usual SPICE treatment), which costs ~|Vce|/Vaf of relative error on
// the collector row; the 1.5 percent bound holds where that ratio is
// small.
var bjtNpnOperatingPoints = [][]float64{
	{0.9, 0.65, 0.0}, // forward active
	{0.2, 0.65, 0.0}, // saturation
	{5.0, 0.0, 0.0},  // cutoff
	{0.0, 0.65, 0.3}, // reverse-ish
}

func TestBjtNpnJacobianFiniteDifference(t *testing.T) {
	sys := newSys(t, 3)

	p := DefaultBJTParams() // Vaf 100: Early effect in the check
	q, err := NewBjtNPN("Q1", 0, 1, 2, p)
	require.NoError(t, err)

	for _, x := range bjtNpnOperatingPoints {
		checkJacobianFD(t, sys, q, x, 0.015)
	}
}

func TestBjtPnpJacobianFiniteDifference(t *testing.T) {
	sys := newSys(t, 3)

	q, err := NewBjtPNP("Q1", 0, 1, 2, DefaultBJTParams())
	require.NoError(t, err)

	for _, x := range [][]float64{
		{-0.9, -0.65, 0.0}, // forward active (PNP polarity)
		{-0.2, -0.65, 0.0}, // saturation
		{-5.0, 0.0, 0.0},   // cutoff
		{0.0, -0.65, -0.3},
	} {
		checkJacobianFD(t, sys, q, x, 0.015)
	}
}

func TestBjtNpnStampMatchesTransportCurrents(t *testing.T) {
	// At the linearization point the stamped residual rows reproduce
	// the terminal currents.
	sys := newSys(t, 3)

	p := DefaultBJTParams()
	p.Is = 1e-14
	p.NVt = 0.02585
	p.BetaF = 100.0
	p.BetaR = 1.0
	p.Vaf = 0 // no Early effect for the analytic comparison
	q, err := NewBjtNPN("Q1", 0, 1, 2, p)
	require.NoError(t, err)

	x := []float64{5.0, 0.7, 0.0}
	r := residualAt(t, sys, q, x)

	ic, ib, ie := q.TerminalCurrents()
	require.InEpsilon(t, ic, r[0], 1e-9)
	require.InEpsilon(t, ib, r[1], 1e-9)
	require.InEpsilon(t, ie, r[2], 1e-9)

	// Against the transport expression Is*(exp(Vbe/nVt) - exp(Vbc/nVt))
	want := p.Is * (SafeExp(0.7/p.NVt) - SafeExp(-4.3/p.NVt))
	require.InEpsilon(t, want, ic, 0.02)

	// KCL at the device: currents sum to zero.
	require.InDelta(t, 0.0, ic+ib+ie, 1e-15)
}

func TestBjtPnpDiodeConnectedPolarity(t *testing.T) {
	// Diode-connected PNP (B = C = GND) with the emitter pulled high:
	// the emitter injects, the collector collects.
	q, err := NewBjtPNP("Q1", GND, GND, 0, DefaultBJTParams())
	require.NoError(t, err)

	q.ComputeLimited(&LimitContext{X: []float64{0.65}, XOld: []float64{0.65}})
	ic, ib, ie := q.TerminalCurrents()
	require.Greater(t, ie, 0.0, "emitter current flows into the device")
	require.Less(t, ic, 0.0)
	require.Less(t, ib, 0.0)
	require.InDelta(t, 0.0, ic+ib+ie, 1e-15)
}
