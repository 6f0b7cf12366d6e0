package device

import (
	"fmt"

	"aspice/internal/consts"
)

// DiodeParams are the Shockley model parameters. Bv = 0 disables the
// zener branch.
type DiodeParams struct {
	Is   float64 // saturation current (A)
	N    float64 // emission coefficient
	Vt   float64 // thermal voltage (V)
	Gmin float64 // junction gmin (S)
	Bv   float64 // breakdown voltage (V), 0 = none
	Ibv  float64 // current at breakdown (A)
}

func DefaultDiodeParams() DiodeParams {
	return DiodeParams{Is: 1e-14, N: 1.0, Vt: 0.02585, Gmin: 1e-12, Bv: 0, Ibv: 1e-3}
}

// DiodeParamsAtTemp is DefaultDiodeParams with the thermal voltage
// evaluated at temp (Kelvin) instead of the SPICE room-temperature
// default.
func DiodeParamsAtTemp(temp float64) DiodeParams {
	p := DefaultDiodeParams()
	p.Vt = consts.ThermalVoltage(temp)
	return p
}

// Diode is a Shockley diode with Newton linearization and PN junction
// limiting. Current flows anode -> cathode.
type Diode struct {
	name   string
	na, nc int
	par    DiodeParams

	limitedVd float64
}

func NewDiode(name string, anode, cathode int, par DiodeParams) (*Diode, error) {
	if par.Is <= 0 {
		return nil, fmt.Errorf("diode %s: Is must be > 0, got %g", name, par.Is)
	}
	if par.N <= 0 {
		return nil, fmt.Errorf("diode %s: N must be > 0, got %g", name, par.N)
	}
	if par.Vt <= 0 {
		return nil, fmt.Errorf("diode %s: Vt must be > 0, got %g", name, par.Vt)
	}
	if par.Gmin < 0 {
		return nil, fmt.Errorf("diode %s: gmin must be >= 0, got %g", name, par.Gmin)
	}
	if par.Bv < 0 {
		return nil, fmt.Errorf("diode %s: Bv must be >= 0, got %g", name, par.Bv)
	}
	if par.Ibv <= 0 {
		return nil, fmt.Errorf("diode %s: Ibv must be > 0, got %g", name, par.Ibv)
	}
	return &Diode{name: name, na: anode, nc: cathode, par: par}, nil
}

func (d *Diode) Name() string { return d.name }

// Stamp is empty: the diode contributes only through StampNewton.
func (d *Diode) Stamp(ctx *StampContext) error { return nil }

func (d *Diode) AppendDCPaths(paths [][2]int) [][2]int {
	return append(paths, [2]int{d.na, d.nc})
}

func (d *Diode) ComputeLimited(ctx *LimitContext) {
	vdNew := NodeVoltage(ctx.X, d.na) - NodeVoltage(ctx.X, d.nc)
	vdOld := NodeVoltage(ctx.XOld, d.na) - NodeVoltage(ctx.XOld, d.nc)

	nvt := d.par.N * d.par.Vt
	d.limitedVd = PNJLimit(vdNew, vdOld, nvt, CriticalVoltage(d.par.Is, nvt))
}

// LimitedVoltage exposes the cached junction voltage for tests.
func (d *Diode) LimitedVoltage() float64 { return d.limitedVd }

func (d *Diode) StampNewton(ctx *StampContext, xGuess []float64) error {
	v := d.limitedVd

	if d.par.Bv > 0 && v < -d.par.Bv {
		// Zener breakdown: piecewise linear I = (Ibv/Bv)*(v - Bv)
		gz := d.par.Ibv / d.par.Bv
		ieq := -gz * d.par.Bv
		StampConductance(ctx.Sys, d.na, d.nc, gz+d.par.Gmin)
		StampCurrentSource(ctx.Sys, d.na, d.nc, ieq)
		return nil
	}

	nvt := d.par.N * d.par.Vt
	ev := SafeExp(v / nvt)

	id := d.par.Is * (ev - 1.0)
	gd := (d.par.Is/nvt)*ev + d.par.Gmin
	ieq := id - gd*v

	StampConductance(ctx.Sys, d.na, d.nc, gd)
	StampCurrentSource(ctx.Sys, d.na, d.nc, ieq)
	return nil
}

// Current evaluates the model current at the given terminal voltages.
func (d *Diode) Current(x []float64) float64 {
	v := NodeVoltage(x, d.na) - NodeVoltage(x, d.nc)
	if d.par.Bv > 0 && v < -d.par.Bv {
		gz := d.par.Ibv / d.par.Bv
		return gz*v - gz*d.par.Bv
	}
	nvt := d.par.N * d.par.Vt
	return d.par.Is * (SafeExp(v/nvt) - 1.0)
}
