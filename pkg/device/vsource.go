package device

import (
	"fmt"
	"math"
)

// VoltageSource holds va - vb = V and claims one branch unknown: the
// current flowing into terminal a from the external circuit.
type VoltageSource struct {
	name   string
	na, nb int
	value  float64

	shape     SourceShape
	offset    float64
	amplitude float64
	freq      float64
	phase     float64 // degrees

	branchIdx int
}

func NewVoltageSource(name string, a, b int, value float64) *VoltageSource {
	return &VoltageSource{name: name, na: a, nb: b, value: value, offset: value, shape: ShapeDC, branchIdx: -1}
}

func NewSinVoltageSource(name string, a, b int, offset, amplitude, freq, phase float64) *VoltageSource {
	return &VoltageSource{
		name: name, na: a, nb: b, shape: ShapeSin,
		value: offset, offset: offset, amplitude: amplitude, freq: freq, phase: phase,
		branchIdx: -1,
	}
}

func (v *VoltageSource) Name() string { return v.name }

func (v *VoltageSource) SetVoltage(val float64) {
	v.value = val
	v.offset = val
}

func (v *VoltageSource) SetTime(t float64) {
	if v.shape == ShapeSin {
		rad := v.phase * math.Pi / 180.0
		v.value = v.offset + v.amplitude*math.Sin(2.0*math.Pi*v.freq*t+rad)
	}
}

func (v *VoltageSource) BranchCount() int { return 1 }

func (v *VoltageSource) SetBranchIndex(idx int) { v.branchIdx = idx }

// BranchIndex returns the unknown index of the source current, valid
// after Circuit.Finalize.
func (v *VoltageSource) BranchIndex() int { return v.branchIdx }

func (v *VoltageSource) Stamp(ctx *StampContext) error {
	if v.branchIdx < 0 {
		return fmt.Errorf("voltage source %s: branch index not set (did you call Circuit.Finalize?)", v.name)
	}

	k := v.branchIdx
	if v.na != GND {
		ctx.Sys.AddA(v.na, k, +1)
		ctx.Sys.AddA(k, v.na, +1)
	}
	if v.nb != GND {
		ctx.Sys.AddA(v.nb, k, -1)
		ctx.Sys.AddA(k, v.nb, -1)
	}
	ctx.Sys.AddZ(k, v.value*ctx.Scale)
	return nil
}

func (v *VoltageSource) AppendDCPaths(paths [][2]int) [][2]int {
	return append(paths, [2]int{v.na, v.nb})
}
