package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"aspice/pkg/circuit"
	"aspice/pkg/device"
)

func TestCapacitorAtDC(t *testing.T) {
	// 5V source on N1, 1uF to ground. One step from the DC point must
	// hold the node and report zero capacitor current.
	ckt := circuit.New()
	n1 := ckt.CreateNode("N1")
	require.NoError(t, ckt.Add(device.NewVoltageSource("V1", n1, circuit.GND, 5.0)))
	c1, err := device.NewCapacitor("C1", n1, circuit.GND, 1e-6)
	require.NoError(t, err)
	require.NoError(t, ckt.Add(c1))
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	require.True(t, eng.SolveDC(x, nil))
	eng.InitializeDynamics(x)

	require.True(t, eng.Step(1e-3, x, 8, 1e-6, 1e-9))
	require.InDelta(t, 5.0, x[n1], 1e-6)
	require.InDelta(t, 0.0, c1.Current(), 1e-9)
}

func TestStepRejectsBadDt(t *testing.T) {
	ckt := circuit.New()
	n1 := ckt.CreateNode("N1")
	require.NoError(t, ckt.Add(device.NewVoltageSource("V1", n1, circuit.GND, 5.0)))
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	require.False(t, eng.Step(0, x, 8, 1e-6, 1e-9))
	require.False(t, eng.Step(-1e-6, x, 8, 1e-6, 1e-9))
}

func TestRCChargingMatchesAnalytic(t *testing.T) {
	// 5V into R=1k, C=1uF from a cold start: v(t) = 5*(1 - exp(-t/RC)).
	const (
		rval = 1000.0
		cval = 1e-6
		tau  = rval * cval
		dt   = 10e-6
	)

	ckt := circuit.New()
	n1 := ckt.CreateNode("IN")
	n2 := ckt.CreateNode("OUT")
	require.NoError(t, ckt.Add(device.NewVoltageSource("V1", n1, circuit.GND, 5.0)))
	mustResistor(t, ckt, "R1", n1, n2, rval)
	c1, err := device.NewCapacitor("C1", n2, circuit.GND, cval)
	require.NoError(t, err)
	require.NoError(t, ckt.Add(c1))
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	eng.InitializeDynamics(x) // cold start: everything discharged

	steps := int(tau / dt) // one time constant
	for i := 0; i < steps; i++ {
		require.True(t, eng.Step(dt, x, 8, 1e-6, 1e-9), "step %d", i)
	}

	// The cold start seeds zero companion current, which costs a small
	// startup offset on top of the discretization error.
	want := 5.0 * (1.0 - math.Exp(-1.0))
	require.InDelta(t, want, x[n2], 0.02)
}

func TestTransientRunnerRecordsTraces(t *testing.T) {
	ckt := circuit.New()
	n1 := ckt.CreateNode("IN")
	n2 := ckt.CreateNode("OUT")
	v := device.NewVoltageSource("Vin", n1, circuit.GND, 2.0)
	require.NoError(t, ckt.Add(v))
	mustResistor(t, ckt, "R1", n1, n2, 1000.0)
	c1, err := device.NewCapacitor("C1", n2, circuit.GND, 1e-6)
	require.NoError(t, err)
	require.NoError(t, ckt.Add(c1))
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	require.True(t, eng.SolveDC(x, nil))
	eng.InitializeDynamics(x)

	tr, err := NewTransient(eng, 10e-6, 1e-3)
	require.NoError(t, err)
	require.NoError(t, tr.Run(x))

	res := tr.Results()
	require.Len(t, res["TIME"], 100)
	require.Len(t, res["V(OUT)"], 100)
	require.Len(t, res["I(Vin)"], 100)

	// Already at steady state: the trace stays put.
	for _, v := range res["V(OUT)"] {
		require.InDelta(t, 2.0, v, 1e-6)
	}
}

func TestTransientRunnerAdvancesSineSource(t *testing.T) {
	// Stiff divider driven by a 1kHz sine: the output tracks the source
	// with no storage elements in the way.
	ckt := circuit.New()
	n1 := ckt.CreateNode("IN")
	n2 := ckt.CreateNode("OUT")
	require.NoError(t, ckt.Add(device.NewSinVoltageSource("Vin", n1, circuit.GND, 0, 1.0, 1000.0, 0)))
	mustResistor(t, ckt, "R1", n1, n2, 1000.0)
	mustResistor(t, ckt, "R2", n2, circuit.GND, 1000.0)
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	require.True(t, eng.SolveDC(x, nil))
	eng.InitializeDynamics(x)

	dt := 25e-6
	tr, err := NewTransient(eng, dt, 1e-3)
	require.NoError(t, err)
	require.NoError(t, tr.Run(x))

	res := tr.Results()
	for i, tv := range res["TIME"] {
		want := 0.5 * math.Sin(2.0*math.Pi*1000.0*tv)
		require.InDelta(t, want, res["V(OUT)"][i], 1e-6, "t=%g", tv)
	}
}

func TestTransientValidation(t *testing.T) {
	ckt := circuit.New()
	ckt.CreateNode("N1")
	ckt.Finalize()
	eng := NewEngine(ckt, DefaultConfig())

	_, err := NewTransient(eng, 0, 1e-3)
	require.Error(t, err)
	_, err = NewTransient(eng, 1e-3, 1e-6)
	require.Error(t, err)
}

func TestPseudoTransientReachesDC(t *testing.T) {
	ckt := circuit.New()
	n1 := ckt.CreateNode("N1")
	n2 := ckt.CreateNode("N2")
	require.NoError(t, ckt.Add(device.NewVoltageSource("V1", n1, circuit.GND, 1.0)))
	mustResistor(t, ckt, "R1", n1, n2, 1000.0)
	mustDiode(t, ckt, "D1", n2, circuit.GND, device.DefaultDiodeParams())
	c1, err := device.NewCapacitor("C1", n2, circuit.GND, 100e-9)
	require.NoError(t, err)
	require.NoError(t, ckt.Add(c1))
	ckt.SetNodeset(n2, 0.5)
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	var stats Stats
	require.True(t, eng.SolveDCPseudoTransient(x, 1e-4, 1e-6, &stats))
	require.True(t, stats.Converged)
	require.Greater(t, x[n2], 0.5)
	require.Less(t, x[n2], 0.8)
}

func TestInitializeDynamicsSeedsHistory(t *testing.T) {
	ckt := circuit.New()
	n1 := ckt.CreateNode("N1")
	require.NoError(t, ckt.Add(device.NewVoltageSource("V1", n1, circuit.GND, 3.0)))
	c1, err := device.NewCapacitor("C1", n1, circuit.GND, 1e-6)
	require.NoError(t, err)
	require.NoError(t, ckt.Add(c1))
	ckt.Finalize()

	eng := NewEngine(ckt, DefaultConfig())
	x := eng.NewSolution()
	x[n1] = 3.0
	eng.InitializeDynamics(x)
	require.Equal(t, 3.0, c1.Voltage())
	require.Equal(t, 0.0, c1.Current())
	require.Equal(t, 3.0, eng.Solution()[n1])
}
