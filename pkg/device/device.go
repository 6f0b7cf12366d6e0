package device

import (
	"aspice/pkg/matrix"
)

// GND is the reserved ground node. It is never stored as an unknown;
// reads against it return 0.
const GND = -1

// StampContext is passed to every stamp call. Scale multiplies all
// independent source contributions; the DC engine ramps it during
// source-stepping homotopy, so every source device must honour it.
type StampContext struct {
	Sys   *matrix.System
	Scale float64
}

// LimitContext carries the candidate and reference solutions used for
// PN junction voltage limiting.
type LimitContext struct {
	X    []float64 // current Newton guess
	XOld []float64 // previous accepted iterate
}

// Device is the base capability: a linear stamp plus the DC conduction
// topology used by the connectivity audit.
type Device interface {
	Name() string

	// Stamp adds the fixed-coefficient contribution to (A, z). It must
	// not depend on the Newton guess.
	Stamp(ctx *StampContext) error

	// AppendDCPaths appends node pairs that conduct at DC. Resistors,
	// voltage sources, junctions and inductors count; ideal current
	// sources and capacitors do not.
	AppendDCPaths(paths [][2]int) [][2]int
}

// NonLinear devices are re-linearized every Newton iteration.
// ComputeLimited runs before StampNewton and caches the limited
// junction voltages; it must not touch (A, z).
type NonLinear interface {
	Device
	ComputeLimited(ctx *LimitContext)
	StampNewton(ctx *StampContext, xGuess []float64) error
}

// TimeDependent devices carry a companion model between time steps.
type TimeDependent interface {
	Device
	BeginStep(dt float64)
	CommitStep(xSolved []float64)
}

// BranchElement devices own one or more branch-current unknowns,
// assigned at Circuit.Finalize in registration order.
type BranchElement interface {
	Device
	BranchCount() int
	SetBranchIndex(firstBranchIndex int)
}

// TimeVarying sources update their instantaneous value from the
// simulation clock before each transient step.
type TimeVarying interface {
	SetTime(t float64)
}

// NodeVoltage reads a node voltage from the solution vector.
func NodeVoltage(x []float64, n int) float64 {
	if n == GND {
		return 0
	}
	return x[n]
}

// StampConductance stamps g between a and b: +g on (a,a) and (b,b),
// -g on (a,b) and (b,a).
func StampConductance(sys *matrix.System, a, b int, g float64) {
	if a != GND {
		sys.AddA(a, a, g)
	}
	if b != GND {
		sys.AddA(b, b, g)
	}
	if a != GND && b != GND {
		sys.AddA(a, b, -g)
		sys.AddA(b, a, -g)
	}
}

// StampCurrentSource injects I from a to b. The row equation is
// A*x - z = 0, so current leaving a lands on the RHS as -I.
func StampCurrentSource(sys *matrix.System, a, b int, i float64) {
	if a != GND {
		sys.AddZ(a, -i)
	}
	if b != GND {
		sys.AddZ(b, +i)
	}
}
