package device

import (
	"fmt"
)

// Capacitor under the trapezoidal companion model:
// i = G*v + Ieq with G = 2C/dt, Ieq = -(iPrev + G*vPrev).
// At DC (dt <= 0) it degenerates to an open circuit.
type Capacitor struct {
	name   string
	na, nb int
	value  float64

	// Companion parameters for the current step
	geq float64
	ieq float64

	// History
	vPrev float64
	iPrev float64
}

func NewCapacitor(name string, a, b int, value float64) (*Capacitor, error) {
	if value < 0 {
		return nil, fmt.Errorf("capacitor %s: C must be >= 0, got %g", name, value)
	}
	return &Capacitor{name: name, na: a, nb: b, value: value}, nil
}

func (c *Capacitor) Name() string { return c.name }

func (c *Capacitor) BeginStep(dt float64) {
	if dt <= 0 {
		// DC analysis: open circuit
		c.geq = 0
		c.ieq = 0
		return
	}
	c.geq = 2.0 * c.value / dt
	c.ieq = -(c.iPrev + c.geq*c.vPrev)
}

func (c *Capacitor) CommitStep(xSolved []float64) {
	vNew := NodeVoltage(xSolved, c.na) - NodeVoltage(xSolved, c.nb)
	if c.geq == 0 {
		c.vPrev = vNew
		c.iPrev = 0
		return
	}
	c.iPrev = c.geq*vNew + c.ieq
	c.vPrev = vNew
}

func (c *Capacitor) Stamp(ctx *StampContext) error {
	StampConductance(ctx.Sys, c.na, c.nb, c.geq)
	StampCurrentSource(ctx.Sys, c.na, c.nb, c.ieq)
	return nil
}

func (c *Capacitor) AppendDCPaths(paths [][2]int) [][2]int {
	// Open at DC.
	return paths
}

// Current returns the a->b companion current from the last CommitStep.
func (c *Capacitor) Current() float64 { return c.iPrev }

// Voltage returns the terminal voltage from the last CommitStep.
func (c *Capacitor) Voltage() float64 { return c.vPrev }
