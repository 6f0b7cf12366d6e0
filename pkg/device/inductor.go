package device

import (
	"fmt"
)

// Inductor with trapezoidal integration. One branch unknown carries the
// a->b current. The branch equation is
//
//	v(a) - v(b) - Reff*i + (Reff*iPrev + vPrev) = 0
//
// with Reff = 2L/dt. Before the first BeginStep both companion terms
// are zero, so a plain DC solve sees v(a) = v(b): a short, as required.
type Inductor struct {
	name   string
	na, nb int
	value  float64

	branchIdx int

	reff float64
	rhs  float64

	iPrev float64
	vPrev float64
}

func NewInductor(name string, a, b int, value float64) (*Inductor, error) {
	if value <= 0 {
		return nil, fmt.Errorf("inductor %s: L must be > 0, got %g", name, value)
	}
	return &Inductor{name: name, na: a, nb: b, value: value, branchIdx: -1}, nil
}

func (l *Inductor) Name() string { return l.name }

func (l *Inductor) BranchCount() int { return 1 }

func (l *Inductor) SetBranchIndex(idx int) { l.branchIdx = idx }

func (l *Inductor) BranchIndex() int { return l.branchIdx }

func (l *Inductor) BeginStep(dt float64) {
	if dt <= 0 {
		panic(fmt.Sprintf("inductor %s: BeginStep with dt <= 0", l.name))
	}
	l.reff = 2.0 * l.value / dt
	l.rhs = -l.reff*l.iPrev - l.vPrev
}

func (l *Inductor) CommitStep(xSolved []float64) {
	l.iPrev = xSolved[l.branchIdx]
	l.vPrev = NodeVoltage(xSolved, l.na) - NodeVoltage(xSolved, l.nb)
}

func (l *Inductor) Stamp(ctx *StampContext) error {
	if l.branchIdx < 0 {
		return fmt.Errorf("inductor %s: branch index not set (did you call Circuit.Finalize?)", l.name)
	}

	k := l.branchIdx
	if l.na != GND {
		ctx.Sys.AddA(k, l.na, +1)
		ctx.Sys.AddA(l.na, k, +1)
	}
	if l.nb != GND {
		ctx.Sys.AddA(k, l.nb, -1)
		ctx.Sys.AddA(l.nb, k, -1)
	}
	ctx.Sys.AddA(k, k, -l.reff)
	ctx.Sys.AddZ(k, l.rhs)
	return nil
}

func (l *Inductor) AppendDCPaths(paths [][2]int) [][2]int {
	// Short at DC.
	return append(paths, [2]int{l.na, l.nb})
}

func (l *Inductor) Current() float64 { return l.iPrev }
