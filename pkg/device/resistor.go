package device

import (
	"fmt"
)

type Resistor struct {
	name   string
	na, nb int
	value  float64
}

func NewResistor(name string, a, b int, value float64) (*Resistor, error) {
	if value <= 0 {
		return nil, fmt.Errorf("resistor %s: R must be > 0, got %g", name, value)
	}
	return &Resistor{name: name, na: a, nb: b, value: value}, nil
}

func (r *Resistor) Name() string { return r.name }

func (r *Resistor) Value() float64 { return r.value }

func (r *Resistor) Stamp(ctx *StampContext) error {
	StampConductance(ctx.Sys, r.na, r.nb, 1.0/r.value)
	return nil
}

func (r *Resistor) AppendDCPaths(paths [][2]int) [][2]int {
	return append(paths, [2]int{r.na, r.nb})
}

// Current returns the a->b current for a solved x.
func (r *Resistor) Current(x []float64) float64 {
	return (NodeVoltage(x, r.na) - NodeVoltage(x, r.nb)) / r.value
}
