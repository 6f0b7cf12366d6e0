package device

import (
	"fmt"
	"math"

	"aspice/internal/consts"
)

// BJTParams for the transport-form Ebers-Moll model.
type BJTParams struct {
	Is    float64 // transport saturation current (A)
	NVt   float64 // n * thermal voltage (V)
	BetaF float64 // forward beta
	BetaR float64 // reverse beta
	Vaf   float64 // forward Early voltage (V), 0 = no Early effect
	Gmin  float64 // junction gmin (S)

	// Parasitics, consumed by circuit.AddBJTExtended
	Rb  float64 // base resistance (ohm)
	Rc  float64 // collector resistance (ohm)
	Re  float64 // emitter resistance (ohm)
	Cje float64 // BE junction capacitance (F)
	Cjc float64 // BC junction capacitance (F)
}

func DefaultBJTParams() BJTParams {
	return BJTParams{
		Is:    1e-15,
		NVt:   0.02585,
		BetaF: 200.0,
		BetaR: 2.0,
		Vaf:   100.0,
		Gmin:  1e-12,
	}
}

// BJTParamsAtTemp is DefaultBJTParams with nVt evaluated at temp
// (Kelvin) for emission coefficient n.
func BJTParamsAtTemp(n, temp float64) BJTParams {
	p := DefaultBJTParams()
	p.NVt = n * consts.ThermalVoltage(temp)
	return p
}

func (p BJTParams) validate(name string) error {
	if p.Is <= 0 {
		return fmt.Errorf("bjt %s: Is must be > 0, got %g", name, p.Is)
	}
	if p.NVt <= 0 {
		return fmt.Errorf("bjt %s: nVt must be > 0, got %g", name, p.NVt)
	}
	if p.BetaF <= 0 || p.BetaR <= 0 {
		return fmt.Errorf("bjt %s: betaF and betaR must be > 0", name)
	}
	return nil
}

// BjtNPN is the minimal Ebers-Moll NPN in transport form, with Early
// effect. Node order: collector, base, emitter.
type BjtNPN struct {
	name       string
	nc, nb, ne int
	par        BJTParams

	vbeLim float64
	vbcLim float64
}

func NewBjtNPN(name string, c, b, e int, par BJTParams) (*BjtNPN, error) {
	if err := par.validate(name); err != nil {
		return nil, err
	}
	return &BjtNPN{name: name, nc: c, nb: b, ne: e, par: par}, nil
}

func (q *BjtNPN) Name() string { return q.name }

func (q *BjtNPN) Stamp(ctx *StampContext) error { return nil }

func (q *BjtNPN) AppendDCPaths(paths [][2]int) [][2]int {
	paths = append(paths, [2]int{q.nb, q.ne})
	return append(paths, [2]int{q.nb, q.nc})
}

func (q *BjtNPN) ComputeLimited(ctx *LimitContext) {
	vb := NodeVoltage(ctx.X, q.nb)
	vc := NodeVoltage(ctx.X, q.nc)
	ve := NodeVoltage(ctx.X, q.ne)
	vbOld := NodeVoltage(ctx.XOld, q.nb)
	vcOld := NodeVoltage(ctx.XOld, q.nc)
	veOld := NodeVoltage(ctx.XOld, q.ne)

	vcrit := CriticalVoltage(q.par.Is, q.par.NVt)
	q.vbeLim = PNJLimit(vb-ve, vbOld-veOld, q.par.NVt, vcrit)
	q.vbcLim = PNJLimit(vb-vc, vbOld-vcOld, q.par.NVt, vcrit)
}

// LimitedVoltages exposes the cached (vbe, vbc) pair for tests.
func (q *BjtNPN) LimitedVoltages() (vbe, vbc float64) { return q.vbeLim, q.vbcLim }

// TerminalCurrents evaluates (Ic, Ib, Ie) at the cached limited
// voltages, including the Early term.
func (q *BjtNPN) TerminalCurrents() (ic, ib, ie float64) {
	vbe, vbc := q.vbeLim, q.vbcLim
	p := q.par

	expBE := SafeExp(vbe / p.NVt)
	expBC := SafeExp(vbc / p.NVt)

	iTran := p.Is * (expBE - expBC)
	iBcDiode := (p.Is/p.BetaR)*(expBC-1.0) + p.Gmin*vbc
	iBeDiode := (p.Is/p.BetaF)*(expBE-1.0) + p.Gmin*vbe

	icBase := iTran - iBcDiode
	vce := vbe - vbc
	var gout float64
	if p.Vaf > 0 {
		gout = math.Abs(icBase) / p.Vaf
	}
	ic = icBase + gout*vce
	ib = iBeDiode + iBcDiode
	ie = -(ic + ib)
	return ic, ib, ie
}

func (q *BjtNPN) StampNewton(ctx *StampContext, xGuess []float64) error {
	vbe := q.vbeLim
	vbc := q.vbcLim
	p := q.par

	expBE := SafeExp(vbe / p.NVt)
	expBC := SafeExp(vbc / p.NVt)

	iTran := p.Is * (expBE - expBC)
	iBeDiode := (p.Is/p.BetaF)*(expBE-1.0) + p.Gmin*vbe
	iBcDiode := (p.Is/p.BetaR)*(expBC-1.0) + p.Gmin*vbc

	// Vce = Vbe - Vbc
	vce := vbe - vbc
	icBase := iTran - iBcDiode

	// Early effect as output conductance go = |Ic|/Vaf
	var gout float64
	if p.Vaf > 0 {
		gout = math.Abs(icBase) / p.Vaf
	}
	ic := icBase + gout*vce
	ib := iBeDiode + iBcDiode
	ie := -(ic + ib)

	gTranF := (p.Is / p.NVt) * expBE
	gTranR := (p.Is / p.NVt) * expBC
	gbe := (p.Is/(p.BetaF*p.NVt))*expBE + p.Gmin
	gbc := (p.Is/(p.BetaR*p.NVt))*expBC + p.Gmin

	// Jacobian dI/dVnode. Vbe = Vb - Ve, Vbc = Vb - Vc,
	// dVce/dVc = +1, dVce/dVe = -1, dVce/dVb = 0.
	dIcdVb := gTranF - gTranR - gbc
	dIcdVc := gTranR + gbc + gout
	dIcdVe := -gTranF - gout

	dIbdVb := gbe + gbc
	dIbdVc := -gbc
	dIbdVe := -gbe

	dIedVb := -(dIcdVb + dIbdVb)
	dIedVc := -(dIcdVc + dIbdVc)
	dIedVe := -(dIcdVe + dIbdVe)

	// RHS = J*V_op - I_op
	jvIc := gTranF*vbe + (-gTranR-gbc)*vbc + gout*vce
	jvIb := gbe*vbe + gbc*vbc
	jvIe := -(jvIc + jvIb)

	q.stampRow(ctx, q.nc, ic, dIcdVc, dIcdVb, dIcdVe, jvIc)
	q.stampRow(ctx, q.nb, ib, dIbdVc, dIbdVb, dIbdVe, jvIb)
	q.stampRow(ctx, q.ne, ie, dIedVc, dIedVb, dIedVe, jvIe)
	return nil
}

func (q *BjtNPN) stampRow(ctx *StampContext, row int, iOp, ddVc, ddVb, ddVe, jv float64) {
	if row == GND {
		return
	}
	if q.nc != GND {
		ctx.Sys.AddA(row, q.nc, ddVc)
	}
	if q.nb != GND {
		ctx.Sys.AddA(row, q.nb, ddVb)
	}
	if q.ne != GND {
		ctx.Sys.AddA(row, q.ne, ddVe)
	}
	ctx.Sys.AddZ(row, jv-iOp)
}

// BjtPNP is the complementary device. Junction voltages are Veb and
// Vcb; the Early term feeds an equivalent ro between C and E with the
// PNP direction convention.
type BjtPNP struct {
	name       string
	nc, nb, ne int
	par        BJTParams

	vebLim float64
	vcbLim float64
}

func NewBjtPNP(name string, c, b, e int, par BJTParams) (*BjtPNP, error) {
	if err := par.validate(name); err != nil {
		return nil, err
	}
	return &BjtPNP{name: name, nc: c, nb: b, ne: e, par: par}, nil
}

func (q *BjtPNP) Name() string { return q.name }

func (q *BjtPNP) Stamp(ctx *StampContext) error { return nil }

func (q *BjtPNP) AppendDCPaths(paths [][2]int) [][2]int {
	paths = append(paths, [2]int{q.nb, q.ne})
	return append(paths, [2]int{q.nb, q.nc})
}

func (q *BjtPNP) ComputeLimited(ctx *LimitContext) {
	vb := NodeVoltage(ctx.X, q.nb)
	vc := NodeVoltage(ctx.X, q.nc)
	ve := NodeVoltage(ctx.X, q.ne)
	vbOld := NodeVoltage(ctx.XOld, q.nb)
	vcOld := NodeVoltage(ctx.XOld, q.nc)
	veOld := NodeVoltage(ctx.XOld, q.ne)

	vcrit := CriticalVoltage(q.par.Is, q.par.NVt)
	q.vebLim = PNJLimit(ve-vb, veOld-vbOld, q.par.NVt, vcrit)
	q.vcbLim = PNJLimit(vc-vb, vcOld-vbOld, q.par.NVt, vcrit)
}

func (q *BjtPNP) LimitedVoltages() (veb, vcb float64) { return q.vebLim, q.vcbLim }

// TerminalCurrents evaluates (Ic, Ib, Ie) entering each terminal at the
// cached limited voltages.
func (q *BjtPNP) TerminalCurrents() (ic, ib, ie float64) {
	veb, vcb := q.vebLim, q.vcbLim
	p := q.par

	expEB := SafeExp(veb / p.NVt)
	expCB := SafeExp(vcb / p.NVt)

	iTran := p.Is * (expEB - expCB)
	iEbDiode := (p.Is/p.BetaF)*(expEB-1.0) + p.Gmin*veb
	iCbDiode := (p.Is/p.BetaR)*(expCB-1.0) + p.Gmin*vcb

	icBase := -iTran + iCbDiode
	vec := veb - vcb
	var gout float64
	if p.Vaf > 0 {
		gout = math.Abs(icBase) / p.Vaf
	}
	ic = icBase - gout*vec
	ie = iTran + iEbDiode + gout*vec
	ib = -(ie + ic)
	return ic, ib, ie
}

func (q *BjtPNP) StampNewton(ctx *StampContext, xGuess []float64) error {
	veb := q.vebLim
	vcb := q.vcbLim
	p := q.par

	expEB := SafeExp(veb / p.NVt)
	expCB := SafeExp(vcb / p.NVt)

	iTran := p.Is * (expEB - expCB)
	iEbDiode := (p.Is/p.BetaF)*(expEB-1.0) + p.Gmin*veb
	iCbDiode := (p.Is/p.BetaR)*(expCB-1.0) + p.Gmin*vcb

	// Vec = Veb - Vcb = Ve - Vc (which is -Vce for the PNP)
	vec := veb - vcb
	icBase := -iTran + iCbDiode

	// ro between C and E: current entering C is -go*Vec, entering E is
	// +go*Vec; base current is untouched.
	var gout float64
	if p.Vaf > 0 {
		gout = math.Abs(icBase) / p.Vaf
	}
	ic := icBase - gout*vec
	ie := iTran + iEbDiode + gout*vec
	ib := -(ie + ic)

	gTranF := (p.Is / p.NVt) * expEB
	gTranR := (p.Is / p.NVt) * expCB
	geb := (p.Is/(p.BetaF*p.NVt))*expEB + p.Gmin
	gcb := (p.Is/(p.BetaR*p.NVt))*expCB + p.Gmin

	// Veb = Ve - Vb, Vcb = Vc - Vb, dVec/dVe = +1, dVec/dVc = -1.
	dIedVe := gTranF + geb + gout
	dIedVc := -gTranR - gout
	dIedVb := -(gTranF + geb - gTranR)

	dIcdVe := -gTranF - gout
	dIcdVc := gTranR + gcb + gout
	dIcdVb := gTranF - (gTranR + gcb)

	dIbdVe := -(dIedVe + dIcdVe)
	dIbdVc := -(dIedVc + dIcdVc)
	dIbdVb := -(dIedVb + dIcdVb)

	jvIe := (gTranF+geb)*veb + (-gTranR)*vcb + gout*vec
	jvIc := (-gTranF)*veb + (gTranR+gcb)*vcb - gout*vec
	jvIb := -(jvIe + jvIc)

	q.stampRow(ctx, q.ne, ie, dIedVc, dIedVb, dIedVe, jvIe)
	q.stampRow(ctx, q.nc, ic, dIcdVc, dIcdVb, dIcdVe, jvIc)
	q.stampRow(ctx, q.nb, ib, dIbdVc, dIbdVb, dIbdVe, jvIb)
	return nil
}

func (q *BjtPNP) stampRow(ctx *StampContext, row int, iOp, ddVc, ddVb, ddVe, jv float64) {
	if row == GND {
		return
	}
	if q.nc != GND {
		ctx.Sys.AddA(row, q.nc, ddVc)
	}
	if q.nb != GND {
		ctx.Sys.AddA(row, q.nb, ddVb)
	}
	if q.ne != GND {
		ctx.Sys.AddA(row, q.ne, ddVe)
	}
	ctx.Sys.AddZ(row, jv-iOp)
}
